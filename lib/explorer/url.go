// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

// ErrNoWebPage is returned by WebURL for items without a web page.
var ErrNoWebPage = errors.New("explorer: item has no web page")

// WebURL returns the address of item in the Taiga web interface. The
// project slug comes from the item's embedded project information,
// falling back to projects (typically the session's cached list).
func WebURL(baseURL string, item Item, projects []taiga.Project) (string, error) {
	base, err := taiga.NormalizeBaseURL(baseURL)
	if err != nil {
		return "", err
	}

	slugOf := func(projectID int64, info *taiga.ProjectExtraInfo) (string, error) {
		if info != nil && info.Slug != "" {
			return info.Slug, nil
		}
		for _, project := range projects {
			if project.ID == projectID && project.Slug != "" {
				return project.Slug, nil
			}
		}
		return "", fmt.Errorf("explorer: slug of project %d is unknown; refresh the project list", projectID)
	}

	var slug, suffix string
	switch item := item.(type) {
	case ProjectItem:
		slug = item.Project.Slug
		if slug == "" {
			return "", fmt.Errorf("explorer: project %d has no slug", item.Project.ID)
		}
	case SprintItem:
		slug, err = slugOf(item.Milestone.Project, item.Milestone.ProjectInfo)
		suffix = "/milestone/" + url.PathEscape(item.Milestone.Slug)
	case UserStoryItem:
		slug, err = slugOf(item.Story.Project, item.Story.ProjectInfo)
		suffix = "/us/" + strconv.FormatInt(item.Story.Ref, 10)
	case TaskItem:
		slug, err = slugOf(item.Task.Project, item.Task.ProjectInfo)
		suffix = "/task/" + strconv.FormatInt(item.Task.Ref, 10)
	case EpicItem:
		slug, err = slugOf(item.Epic.Project, item.Epic.ProjectInfo)
		suffix = "/epic/" + strconv.FormatInt(item.Epic.Ref, 10)
	case Placeholder:
		return "", ErrNoWebPage
	default:
		panic(fmt.Sprintf("explorer: unhandled item type %T", item))
	}
	if err != nil {
		return "", err
	}
	return base + "/project/" + url.PathEscape(slug) + suffix, nil
}
