package database

// Board is the single shared project document. It is always read and
// written as a whole; there is no field-level persistence.
type Board struct {
	ProjectName string      `json:"projectName"`
	Tags        []Tag       `json:"tags"`
	Workflows   []Workflow  `json:"workflows"`
	Background  *Background `json:"background,omitempty"`
}

// Workflow is a column on the board, an ordered container of tasks.
// Slice order is display order.
type Workflow struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Color  string `json:"color"`
	Locked bool   `json:"locked,omitempty"`
	Tasks  []Task `json:"tasks"`
}

// Task belongs to exactly one workflow at a time. Moving a task is a
// removal from the source workflow plus an insertion into the destination.
type Task struct {
	ID                    int64         `json:"id"`
	Title                 string        `json:"title"`
	Description           string        `json:"description,omitempty"`
	Color                 string        `json:"color,omitempty"`
	Tags                  []Tag         `json:"tags,omitempty"`
	Assignees             []Assignee    `json:"assignees,omitempty"`
	CustomFields          []CustomField `json:"customFields,omitempty"`
	Media                 []Media       `json:"media,omitempty"`
	Comments              []Comment     `json:"comments,omitempty"`
	ShowTags              bool          `json:"showTags,omitempty"`
	ShowDescriptionOnCard bool          `json:"showDescriptionOnCard,omitempty"`
	ShowAssigneesOnCard   bool          `json:"showAssigneesOnCard,omitempty"`
}

// Tag definitions live on the board, keyed by name. Tasks reference tags
// by copy, so deleting a definition leaves the last-known name/color on
// the tasks that carried it.
type Tag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Assignee struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CustomField types: text, number, link, date, checklist.
type CustomField struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Type       string `json:"type"`
	ShowOnCard bool   `json:"showOnCard,omitempty"`
}

// Media holds an inline-encoded attachment (data URL). Type is "image"
// or "video".
type Media struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type Comment struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type Background struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// User is persisted separately from the board.
type User struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	PasswordHash    string `json:"-"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            string `json:"role"`
	IsSetupComplete bool   `json:"is_setup_complete"`
	AvatarURL       string `json:"avatar_url,omitempty"`
}

// DisplayName is the name shown in the UI and in audit lines: first+last
// name once setup is complete, the email before that.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Email
}
