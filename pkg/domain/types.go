package domain

// Kind names one entity collection: the remote table and the local cache key.
type Kind struct {
	Collection string
	CacheKey   string
}

var (
	KindProjects  = Kind{Collection: "projects", CacheKey: "cache_projects"}
	KindBlogPosts = Kind{Collection: "blog_posts", CacheKey: "cache_blog_posts"}
	KindMessages  = Kind{Collection: "messages", CacheKey: "cache_messages"}
)

// Kinds lists every entity collection.
func Kinds() []Kind {
	return []Kind{KindProjects, KindBlogPosts, KindMessages}
}

// KindByCollection resolves a collection name such as "projects".
func KindByCollection(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Collection == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Entity is implemented by every stored record.
type Entity interface {
	EntityID() string
	EntityDate() string
}

// Patch is a partial update. Fields left nil keep their current value.
type Patch[T any] interface {
	Apply(T) T
}

type Project struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	ShortDescription    string   `json:"shortDescription"`
	DetailedDescription string   `json:"detailedDescription"`
	MediaURLs           []string `json:"mediaUrls"`
	Date                string   `json:"date"`
	Tags                []string `json:"tags"`
}

func (p Project) EntityID() string   { return p.ID }
func (p Project) EntityDate() string { return p.Date }

type BlogPost struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	MediaURL string   `json:"mediaUrl"`
	Date     string   `json:"date"`
	Tags     []string `json:"tags"`
}

func (b BlogPost) EntityID() string   { return b.ID }
func (b BlogPost) EntityDate() string { return b.Date }

type ContactMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Read    bool   `json:"read"`
}

func (m ContactMessage) EntityID() string   { return m.ID }
func (m ContactMessage) EntityDate() string { return m.Date }

type ProjectPatch struct {
	Title               *string   `json:"title,omitempty"`
	ShortDescription    *string   `json:"shortDescription,omitempty"`
	DetailedDescription *string   `json:"detailedDescription,omitempty"`
	MediaURLs           *[]string `json:"mediaUrls,omitempty"`
	Date                *string   `json:"date,omitempty"`
	Tags                *[]string `json:"tags,omitempty"`
}

// Apply merges the patch into p. The id is never touched.
func (patch ProjectPatch) Apply(p Project) Project {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.ShortDescription != nil {
		p.ShortDescription = *patch.ShortDescription
	}
	if patch.DetailedDescription != nil {
		p.DetailedDescription = *patch.DetailedDescription
	}
	if patch.MediaURLs != nil {
		p.MediaURLs = append([]string(nil), (*patch.MediaURLs)...)
	}
	if patch.Date != nil {
		p.Date = *patch.Date
	}
	if patch.Tags != nil {
		p.Tags = append([]string(nil), (*patch.Tags)...)
	}
	return p
}

type BlogPostPatch struct {
	Title    *string   `json:"title,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Content  *string   `json:"content,omitempty"`
	MediaURL *string   `json:"mediaUrl,omitempty"`
	Date     *string   `json:"date,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Apply merges the patch into b. The id is never touched.
func (patch BlogPostPatch) Apply(b BlogPost) BlogPost {
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Summary != nil {
		b.Summary = *patch.Summary
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.MediaURL != nil {
		b.MediaURL = *patch.MediaURL
	}
	if patch.Date != nil {
		b.Date = *patch.Date
	}
	if patch.Tags != nil {
		b.Tags = append([]string(nil), (*patch.Tags)...)
	}
	return b
}

// MessagePatch only ever moves read from false to true.
type MessagePatch struct {
	Read *bool `json:"read,omitempty"`
}

func (patch MessagePatch) Apply(m ContactMessage) ContactMessage {
	if patch.Read != nil && *patch.Read {
		m.Read = true
	}
	return m
}

// MarkRead is the patch used by mark-as-read.
func MarkRead() MessagePatch {
	read := true
	return MessagePatch{Read: &read}
}
