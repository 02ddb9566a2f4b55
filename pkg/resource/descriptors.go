package resource

import (
	"context"
	"strings"
	"time"

	"darkwave/pkg/cache"
	"darkwave/pkg/domain"
	"darkwave/pkg/store"
	"darkwave/pkg/textutil"
)

// Projects describes the projects collection.
func Projects() Descriptor[domain.Project] {
	return Descriptor[domain.Project]{
		Kind: domain.KindProjects,
		WithID: func(p domain.Project, id string) domain.Project {
			p.ID = id
			return p
		},
		Stamp: func(p domain.Project, now time.Time) domain.Project {
			if strings.TrimSpace(p.Date) == "" {
				p.Date = now.UTC().Format(domain.DateLayout)
			}
			return p
		},
		Normalize: func(p domain.Project) domain.Project {
			p.MediaURLs = nonNil(p.MediaURLs)
			p.Tags = nonNil(p.Tags)
			return p
		},
		Sample: func(now time.Time) domain.Project {
			return domain.Project{
				Title:               "Sample Project",
				ShortDescription:    "A placeholder project shown until real content is added",
				DetailedDescription: "This project was created automatically because no projects could be loaded. Edit or delete it from the admin dashboard.",
				MediaURLs:           []string{},
				Date:                now.UTC().Format(domain.DateLayout),
				Tags:                []string{"Sample"},
			}
		},
	}
}

// BlogPosts describes the blog posts collection. An empty summary is
// derived from the content.
func BlogPosts() Descriptor[domain.BlogPost] {
	return Descriptor[domain.BlogPost]{
		Kind: domain.KindBlogPosts,
		WithID: func(b domain.BlogPost, id string) domain.BlogPost {
			b.ID = id
			return b
		},
		Stamp: func(b domain.BlogPost, now time.Time) domain.BlogPost {
			if strings.TrimSpace(b.Date) == "" {
				b.Date = now.UTC().Format(domain.DateLayout)
			}
			return b
		},
		Normalize: func(b domain.BlogPost) domain.BlogPost {
			if strings.TrimSpace(b.Summary) == "" {
				b.Summary = textutil.Summarize(b.Content, textutil.SummaryLength)
			}
			b.Tags = nonNil(b.Tags)
			return b
		},
		Sample: func(now time.Time) domain.BlogPost {
			return domain.BlogPost{
				Title:   "Sample Post",
				Content: "<p>This post was created automatically because no blog posts could be loaded. Edit or delete it from the admin dashboard.</p>",
				Date:    now.UTC().Format(domain.DateLayout),
				Tags:    []string{"Sample"},
			}
		},
	}
}

// Messages describes the contact messages collection. Bodies are stored as
// written, trimmed only; clients escape them when rendering. New messages
// start unread.
func Messages() Descriptor[domain.ContactMessage] {
	return Descriptor[domain.ContactMessage]{
		Kind: domain.KindMessages,
		WithID: func(m domain.ContactMessage, id string) domain.ContactMessage {
			m.ID = id
			return m
		},
		Stamp: func(m domain.ContactMessage, now time.Time) domain.ContactMessage {
			if strings.TrimSpace(m.Date) == "" {
				m.Date = now.UTC().Format(time.RFC3339)
			}
			m.Read = false
			return m
		},
		Normalize: func(m domain.ContactMessage) domain.ContactMessage {
			m.Name = strings.TrimSpace(m.Name)
			m.Email = strings.TrimSpace(m.Email)
			m.Subject = strings.TrimSpace(m.Subject)
			m.Message = strings.TrimSpace(m.Message)
			return m
		},
		Sample: func(now time.Time) domain.ContactMessage {
			return domain.ContactMessage{
				Name:    "Portfolio",
				Email:   "noreply@example.com",
				Subject: "Welcome",
				Message: "Messages sent through the contact form will appear here.",
				Date:    now.UTC().Format(time.RFC3339),
			}
		},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// MessageService adds mark-as-read on top of the generic service.
type MessageService struct {
	*Service[domain.ContactMessage]
}

// NewMessageService builds the contact message service.
func NewMessageService(table store.Table[domain.ContactMessage], collection *cache.Collection[domain.ContactMessage], opts Options) *MessageService {
	return &MessageService{Service: New(Messages(), table, collection, opts)}
}

// MarkAsRead sets read on the message. Calling it again changes nothing.
func (s *MessageService) MarkAsRead(ctx context.Context, id string) (domain.ContactMessage, bool) {
	return s.Update(ctx, id, domain.MarkRead())
}
