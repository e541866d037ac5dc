// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"net/url"
	"strconv"
)

// Listing is the result of a list operation. Items is never nil. When
// Err is non-nil, Items is empty and Err explains why.
type Listing[T any] struct {
	Items []T
	Err   error
}

// Failed reports whether the listing is empty because of an error.
func (listing Listing[T]) Failed() bool {
	return listing.Err != nil
}

// list fetches a full collection. Errors are logged and folded into the
// Listing rather than returned.
func list[T any](ctx context.Context, client *Client, resource, path string, query url.Values) Listing[T] {
	var items []T
	err := client.getJSON(ctx, path, query, true, &items)
	if err != nil {
		client.logger.Warn("taiga listing failed",
			"resource", resource,
			"query", query.Encode(),
			"error", err,
		)
		return Listing[T]{Items: []T{}, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Items: items}
}

// filter is one id-valued query parameter. Zero ids are omitted.
type filter struct {
	name string
	id   int64
}

func filterQuery(filters ...filter) url.Values {
	query := url.Values{}
	for _, f := range filters {
		if f.id != 0 {
			query.Set(f.name, strconv.FormatInt(f.id, 10))
		}
	}
	return query
}

// ListProjects returns the projects visible to the current user.
func (client *Client) ListProjects(ctx context.Context) Listing[Project] {
	return list[Project](ctx, client, "projects", "/projects", nil)
}

// ListMilestones returns the sprints of a project.
func (client *Client) ListMilestones(ctx context.Context, projectID int64) Listing[Milestone] {
	return list[Milestone](ctx, client, "milestones", "/milestones", filterQuery(filter{"project", projectID}))
}

// ListUserStories returns the user stories of a project. A non-zero
// milestoneID restricts the result to that sprint.
func (client *Client) ListUserStories(ctx context.Context, projectID, milestoneID int64) Listing[UserStory] {
	return list[UserStory](ctx, client, "user stories", "/userstories",
		filterQuery(filter{"project", projectID}, filter{"milestone", milestoneID}))
}

// ListTasks returns the tasks attached to a user story.
func (client *Client) ListTasks(ctx context.Context, userStoryID int64) Listing[Task] {
	return list[Task](ctx, client, "tasks", "/tasks", filterQuery(filter{"user_story", userStoryID}))
}

// ListEpics returns the epics of a project.
func (client *Client) ListEpics(ctx context.Context, projectID int64) Listing[Epic] {
	return list[Epic](ctx, client, "epics", "/epics", filterQuery(filter{"project", projectID}))
}
