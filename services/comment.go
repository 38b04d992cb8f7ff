package services

import (
	"context"
	"fmt"
	"strings"

	"dunzo/model"

	"gorm.io/gorm"
)

// ListComments returns the task's comments, oldest first.
func (p *Planner) ListComments(ctx context.Context, taskID, requester int) ([]model.Comment, error) {
	db := p.db.WithContext(ctx)
	task, err := GetTaskData(db, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(db, task.ProjectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	var comments []model.Comment
	if err := db.Preload("User").Where("task_id = ?", taskID).Order("created_at").Order("comment_id").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// PostComment adds a comment, or a reply when parentID is set, and notifies
// the task's other assignees.
func (p *Planner) PostComment(ctx context.Context, taskID, requester int, content string, parentID *int) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("Content is required")
	}

	out := newOutbox()
	comment := model.Comment{TaskID: taskID, UserID: requester, ParentID: parentID, Content: content}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := GetTaskData(tx, taskID)
		if err != nil {
			return err
		}
		if _, err := requireMember(tx, task.ProjectID, requester, "Only project members can comment on this task"); err != nil {
			return err
		}
		if parentID != nil {
			var parent model.Comment
			if err := tx.Where("comment_id = ?", *parentID).First(&parent).Error; err != nil {
				return lookup(err, "Parent comment")
			}
			if parent.TaskID != taskID {
				return validation("Parent comment must belong to the same task")
			}
		}
		if err := tx.Omit("Task", "User", "Parent").Create(&comment).Error; err != nil {
			return err
		}
		author, err := GetUserdata(tx, requester)
		if err != nil {
			return err
		}
		comment.User = *author

		var assignees []model.Assignment
		if err := tx.Where("task_id = ? AND user_id <> ?", taskID, requester).Find(&assignees).Error; err != nil {
			return err
		}
		for _, a := range assignees {
			if err := out.notify(tx, a.UserID, "New Comment on your Task",
				fmt.Sprintf("%s commented on %q", author.DisplayName(), task.Title)); err != nil {
				return err
			}
		}
		out.touch(task.ProjectID)
		return recordTimeline(tx, task.ProjectID, requester, fmt.Sprintf("Commented on %s", task.Title),
			map[string]any{"task_id": taskID, "comment_id": comment.CommentID})
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &comment, nil
}

// EditComment changes a comment's content. Authors only.
func (p *Planner) EditComment(ctx context.Context, commentID, requester int, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("Content is required")
	}
	var comment model.Comment
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("comment_id = ?", commentID).First(&comment).Error; err != nil {
			return lookup(err, "Comment")
		}
		if comment.UserID != requester {
			return denied("You can only edit your own comments")
		}
		if err := tx.Model(&comment).Omit("Task", "User", "Parent").Update("content", content).Error; err != nil {
			return err
		}
		comment.Content = content
		return tx.Where("user_id = ?", requester).First(&comment.User).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment deletes a comment and its replies. Authors only.
func (p *Planner) DeleteComment(ctx context.Context, commentID, requester int) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment model.Comment
		if err := forUpdate(tx).Where("comment_id = ?", commentID).First(&comment).Error; err != nil {
			return lookup(err, "Comment")
		}
		if comment.UserID != requester {
			return denied("You can only delete your own comments")
		}
		return deleteThreads(tx, []int{commentID})
	})
}

// deleteThreads deletes the given comments and every reply below them.
func deleteThreads(tx *gorm.DB, roots []int) error {
	thread := append([]int(nil), roots...)
	frontier := roots
	for len(frontier) > 0 {
		var replies []int
		if err := tx.Model(&model.Comment{}).Where("parent_id IN ?", frontier).Pluck("comment_id", &replies).Error; err != nil {
			return err
		}
		thread = append(thread, replies...)
		frontier = replies
	}
	for i := len(thread) - 1; i >= 0; i-- {
		if err := tx.Where("comment_id = ?", thread[i]).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
	}
	return nil
}
