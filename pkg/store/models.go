package store

import (
	"time"

	"gorm.io/datatypes"

	"darkwave/pkg/domain"
)

// GORM models used for persistence.
type ProjectModel struct {
	ID                  string                      `gorm:"primaryKey"`
	Title               string                      `gorm:"not null"`
	ShortDescription    string                      `gorm:"not null;default:''"`
	DetailedDescription string                      `gorm:"type:text;not null;default:''"`
	MediaURLs           datatypes.JSONSlice[string] `gorm:"column:media_urls;type:jsonb"`
	Date                string                      `gorm:"not null;index"`
	Tags                datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt           time.Time                   `gorm:"autoCreateTime"`
}

func (ProjectModel) TableName() string { return domain.KindProjects.Collection }

type BlogPostModel struct {
	ID        string                      `gorm:"primaryKey"`
	Title     string                      `gorm:"not null"`
	Summary   string                      `gorm:"not null;default:''"`
	Content   string                      `gorm:"type:text;not null;default:''"`
	MediaURL  string                      `gorm:"column:media_url"`
	Date      string                      `gorm:"not null;index"`
	Tags      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
}

func (BlogPostModel) TableName() string { return domain.KindBlogPosts.Collection }

type MessageModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;index"`
	Subject   string    `gorm:"not null;default:''"`
	Message   string    `gorm:"type:text;not null"`
	Date      string    `gorm:"not null;index"`
	Read      bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (MessageModel) TableName() string { return domain.KindMessages.Collection }

func projectToModel(p domain.Project) ProjectModel {
	return ProjectModel{
		ID:                  p.ID,
		Title:               p.Title,
		ShortDescription:    p.ShortDescription,
		DetailedDescription: p.DetailedDescription,
		MediaURLs:           datatypes.JSONSlice[string](nonNil(p.MediaURLs)),
		Date:                p.Date,
		Tags:                datatypes.JSONSlice[string](nonNil(p.Tags)),
	}
}

func projectFromModel(m ProjectModel) domain.Project {
	return domain.Project{
		ID:                  m.ID,
		Title:               m.Title,
		ShortDescription:    m.ShortDescription,
		DetailedDescription: m.DetailedDescription,
		MediaURLs:           nonNil([]string(m.MediaURLs)),
		Date:                m.Date,
		Tags:                nonNil([]string(m.Tags)),
	}
}

func blogPostToModel(b domain.BlogPost) BlogPostModel {
	return BlogPostModel{
		ID:       b.ID,
		Title:    b.Title,
		Summary:  b.Summary,
		Content:  b.Content,
		MediaURL: b.MediaURL,
		Date:     b.Date,
		Tags:     datatypes.JSONSlice[string](nonNil(b.Tags)),
	}
}

func blogPostFromModel(m BlogPostModel) domain.BlogPost {
	return domain.BlogPost{
		ID:       m.ID,
		Title:    m.Title,
		Summary:  m.Summary,
		Content:  m.Content,
		MediaURL: m.MediaURL,
		Date:     m.Date,
		Tags:     nonNil([]string(m.Tags)),
	}
}

func messageToModel(msg domain.ContactMessage) MessageModel {
	return MessageModel{
		ID:      msg.ID,
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: msg.Subject,
		Message: msg.Message,
		Date:    msg.Date,
		Read:    msg.Read,
	}
}

func messageFromModel(m MessageModel) domain.ContactMessage {
	return domain.ContactMessage{
		ID:      m.ID,
		Name:    m.Name,
		Email:   m.Email,
		Subject: m.Subject,
		Message: m.Message,
		Date:    m.Date,
		Read:    m.Read,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
