// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CreateTask creates a task. Project and Subject are required; a
// non-zero UserStory attaches the task to that story.
func (client *Client) CreateTask(ctx context.Context, draft TaskDraft) (*Task, error) {
	draft.Subject = strings.TrimSpace(draft.Subject)
	if draft.Project == 0 {
		return nil, fmt.Errorf("taiga: task project is required")
	}
	if draft.Subject == "" {
		return nil, fmt.Errorf("taiga: task subject is required")
	}

	body, err := client.do(ctx, request{
		method:        http.MethodPost,
		path:          "/tasks",
		body:          draft,
		authenticated: true,
	})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, &MalformedResponseError{Path: "/tasks", Err: err}
	}
	client.logger.Info("created taiga task", "task_id", task.ID, "ref", task.Ref, "project", draft.Project)
	return &task, nil
}
