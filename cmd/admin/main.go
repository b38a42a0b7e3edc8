// Command admin registers a complete portal account (identity plus linked
// profile) from the terminal, for operators seeding accounts without going
// through the web forms. Both records are created in one run: an identity
// without a profile counts as an abandoned registration and is reaped on
// its first login.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/ar1701/demo-tedx/internal/common"
	"github.com/ar1701/demo-tedx/internal/server/config"
	"github.com/ar1701/demo-tedx/internal/server/models"
	"github.com/ar1701/demo-tedx/internal/server/repositories/repomanager"
	"github.com/ar1701/demo-tedx/internal/server/services"
)

const dobLayout = "2006-01-02"

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func getSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func getPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// runSeed prompts for the account and profile fields and persists both.
// All input is collected and validated before anything is written, so a
// typo never leaves a profile-less identity behind.
func runSeed(ctx context.Context, portal *services.PortalService, reader *bufio.Reader, out io.Writer, password func() (string, error)) error {
	name, err := getSimpleText(reader, "Full name", out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(reader, "Username", out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(reader, "Email", out)
	if err != nil {
		return err
	}
	pw, err := password()
	if err != nil {
		return err
	}

	sidText, err := getSimpleText(reader, "Student ID", out)
	if err != nil {
		return err
	}
	sid, err := strconv.ParseInt(sidText, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid student id %q: %w", sidText, err)
	}

	dobText, err := getSimpleText(reader, "Date of birth (YYYY-MM-DD)", out)
	if err != nil {
		return err
	}
	dob, err := time.Parse(dobLayout, dobText)
	if err != nil {
		return fmt.Errorf("invalid date of birth %q: %w", dobText, err)
	}

	var gender, year, branch, college, address, contact string
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Gender", &gender},
		{"Year of study", &year},
		{"Branch", &branch},
		{"College", &college},
		{"Address", &address},
		{"Contact number", &contact},
	}
	for _, p := range prompts {
		v, err := getSimpleText(reader, p.label, out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	identity, err := portal.Register(ctx, name, username, email, pw)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return errors.New("username or email is already registered")
		}
		return fmt.Errorf("registration error: %w", err)
	}

	profile := &models.Profile{
		SID:     sid,
		DOB:     dob,
		Gender:  gender,
		Year:    year,
		Branch:  branch,
		College: college,
		Address: address,
		Contact: contact,
	}
	if _, err := portal.SubmitProfile(ctx, identity.ID, profile); err != nil {
		return fmt.Errorf("error saving profile for %s: %w", identity.UserName, err)
	}

	fmt.Fprintf(out, "registered %s (%s)\n", identity.UserName, identity.ID)
	return nil
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	portal := services.NewPortalService(db, repos, cfg)
	reader := bufio.NewReader(os.Stdin)

	if err := runSeed(ctx, portal, reader, os.Stdout, func() (string, error) {
		return getPassword(os.Stdout)
	}); err != nil {
		log.Fatal(err)
	}
}
