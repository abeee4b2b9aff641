package notification

import "context"

// PostEmail là nội dung một email thông báo bài mới.
// UnsubscribeURL là GET link trong footer; OneClickURL là POST target cho
// List-Unsubscribe-Post. Both carry the same signed token.
type PostEmail struct {
	To              string
	PublicationName string
	PostTitle       string
	PostExcerpt     string
	PostURL         string
	UnsubscribeURL  string
	OneClickURL     string
}

// EmailSender được implement bởi SMTP adapter trong infrastructure
type EmailSender interface {
	SendPostNotification(ctx context.Context, email *PostEmail) error
}
