package session

// NoticeKind classifies the outcome a flow step wants the user to see.
// The presentation layer renders every kind generically.
type NoticeKind string

const (
	KindSuccess           NoticeKind = "success"
	KindInfo              NoticeKind = "info"
	KindDuplicateIdentity NoticeKind = "duplicate_identity"
	KindAuthFailed        NoticeKind = "auth_failed"
	KindNotFound          NoticeKind = "not_found"
	KindStorageError      NoticeKind = "storage_error"
)

// Notice is a one-shot, user-visible message carried across one redirect.
type Notice struct {
	Kind    NoticeKind
	Message string
}
