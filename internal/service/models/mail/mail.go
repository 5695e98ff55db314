package mail

// Message is a rendered transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
