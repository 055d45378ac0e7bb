package scraper

// Kind classifies scrape failures so the delivery pipeline can pick the
// right user-facing reply.
type Kind int

const (
	// KindAuth: the login POST was rejected by the site.
	KindAuth Kind = iota + 1
	// KindUnavailable: the chapter exists but the account lacks entitlement.
	KindUnavailable
	// KindParse: the page layout did not match the expected structure.
	KindParse
	// KindBadData: the embedded chapter JSON was not valid JSON.
	KindBadData
)

// Error is a scrape failure with a message meant for the requesting chat.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func authErr() *Error {
	return &Error{Kind: KindAuth, Message: "Login failed. Check your credentials."}
}

func unavailableErr() *Error {
	return &Error{Kind: KindUnavailable, Message: "Chapter not purchased"}
}

func parseErr(msg string) *Error {
	return &Error{Kind: KindParse, Message: msg}
}

func badDataErr(err error) *Error {
	return &Error{Kind: KindBadData, Message: "Invalid chapter data format", Err: err}
}
