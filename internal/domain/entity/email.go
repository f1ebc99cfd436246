package entity

// EmailBatch is a single mail API call covering a subset of recipients.
type EmailBatch struct {
	Recipients []string
	Subject    string
	HTML       string
}
