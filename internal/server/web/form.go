package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ar1701/demo-tedx/internal/server/models"
)

// dobFormLayout is the wire format of the date input field.
const dobFormLayout = "2006-01-02"

// profileFromForm builds a Profile from the submitted form fields.
// Malformed sid/dob values are rejected here so the flow can surface a
// failure instead of persisting garbage.
func profileFromForm(r *http.Request) (*models.Profile, error) {
	sid, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("sid")), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid student id: %w", err)
	}

	dob, err := time.Parse(dobFormLayout, strings.TrimSpace(r.PostFormValue("dob")))
	if err != nil {
		return nil, fmt.Errorf("invalid date of birth: %w", err)
	}

	return &models.Profile{
		SID:     sid,
		DOB:     dob,
		Gender:  strings.TrimSpace(r.PostFormValue("gender")),
		Year:    strings.TrimSpace(r.PostFormValue("year")),
		Branch:  strings.TrimSpace(r.PostFormValue("branch")),
		College: strings.TrimSpace(r.PostFormValue("college")),
		Address: strings.TrimSpace(r.PostFormValue("address")),
		Contact: strings.TrimSpace(r.PostFormValue("contact")),
	}, nil
}
