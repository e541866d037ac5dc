// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

// Project is a Taiga project as returned by GET /projects.
type Project struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	CreatedDate  string `json:"created_date,omitempty"`
	ModifiedDate string `json:"modified_date,omitempty"`
	IsPrivate    bool   `json:"is_private"`
}

// Milestone is a sprint. Taiga calls sprints milestones in the API.
// Estimated dates are calendar dates (YYYY-MM-DD) and may be empty.
type Milestone struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Project         int64             `json:"project"`
	EstimatedStart  string            `json:"estimated_start"`
	EstimatedFinish string            `json:"estimated_finish"`
	Closed          bool              `json:"closed"`
	ProjectInfo     *ProjectExtraInfo `json:"project_extra_info,omitempty"`
}

// UserStory is a backlog item. Milestone is zero when the story is not
// planned into a sprint.
type UserStory struct {
	ID          int64              `json:"id"`
	Ref         int64              `json:"ref"`
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	IsClosed    bool               `json:"is_closed"`
	Project     int64              `json:"project"`
	Milestone   int64              `json:"milestone"`
	Status      *StatusExtraInfo   `json:"status_extra_info,omitempty"`
	AssignedTo  *AssigneeExtraInfo `json:"assigned_to_extra_info,omitempty"`
	ProjectInfo *ProjectExtraInfo  `json:"project_extra_info,omitempty"`
}

// Task is a unit of work, usually attached to a user story.
type Task struct {
	ID          int64              `json:"id"`
	Ref         int64              `json:"ref"`
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	IsClosed    bool               `json:"is_closed"`
	Project     int64              `json:"project"`
	Milestone   int64              `json:"milestone"`
	UserStory   int64              `json:"user_story"`
	Status      *StatusExtraInfo   `json:"status_extra_info,omitempty"`
	AssignedTo  *AssigneeExtraInfo `json:"assigned_to_extra_info,omitempty"`
	ProjectInfo *ProjectExtraInfo  `json:"project_extra_info,omitempty"`
}

// Epic groups user stories across sprints.
type Epic struct {
	ID          int64              `json:"id"`
	Ref         int64              `json:"ref"`
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	IsClosed    bool               `json:"is_closed"`
	Color       string             `json:"color"`
	Project     int64              `json:"project"`
	Status      *StatusExtraInfo   `json:"status_extra_info,omitempty"`
	AssignedTo  *AssigneeExtraInfo `json:"assigned_to_extra_info,omitempty"`
	ProjectInfo *ProjectExtraInfo  `json:"project_extra_info,omitempty"`
}

// StatusExtraInfo is the denormalized status Taiga embeds in list
// responses.
type StatusExtraInfo struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsClosed bool   `json:"is_closed"`
}

// AssigneeExtraInfo is the denormalized assignee Taiga embeds in list
// responses. Absent (null) when nobody is assigned.
type AssigneeExtraInfo struct {
	Username        string `json:"username"`
	FullNameDisplay string `json:"full_name_display"`
}

// ProjectExtraInfo is the denormalized owning project.
type ProjectExtraInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// User is the profile of an authenticated user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// DisplayName returns the full name, or the username when the full name
// is empty.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// AuthResult is the response to a successful password login.
type AuthResult struct {
	User
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh"`
}

// TaskDraft is the input to CreateTask.
type TaskDraft struct {
	Project     int64  `json:"project"`
	UserStory   int64  `json:"user_story,omitempty"`
	Milestone   int64  `json:"milestone,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
}
