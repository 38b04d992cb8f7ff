package services

import (
	"context"
	"strings"

	"dunzo/model"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const defaultTagColor = "#000000"

var validate = validator.New()

func checkTagColor(color string) (string, error) {
	if color == "" {
		return defaultTagColor, nil
	}
	if err := validate.Var(color, "hexcolor,max=7"); err != nil {
		return "", validation("Invalid hex color: %s", color)
	}
	return strings.ToLower(color), nil
}

func (p *Planner) ListTags(ctx context.Context, projectID, requester int) ([]model.Tag, error) {
	db := p.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	if _, err := requireMember(db, projectID, requester, "You are not a member of this project"); err != nil {
		return nil, err
	}
	var tags []model.Tag
	if err := db.Where("project_id = ?", projectID).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func requireTagManager(tx *gorm.DB, projectID, requester int) error {
	role, err := roleOf(tx, projectID, requester)
	if err != nil {
		return err
	}
	if !model.CanManageMembers(role) {
		return denied("Only Leaders or Managers can manage tags")
	}
	return nil
}

// CreateTag adds a tag to the project. Leaders and Managers only.
func (p *Planner) CreateTag(ctx context.Context, projectID, requester int, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("Name is required")
	}
	color, err := checkTagColor(color)
	if err != nil {
		return nil, err
	}
	tag := model.Tag{ProjectID: projectID, Name: name, HexColor: color}
	out := newOutbox()
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProject(tx, projectID); err != nil {
			return err
		}
		if err := requireTagManager(tx, projectID, requester); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&model.Tag{}).Where("project_id = ? AND name = ?", projectID, name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("Tag %s already exists in this project", name)
		}
		out.touch(projectID)
		return tx.Create(&tag).Error
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &tag, nil
}

// UpdateTag renames or recolours a tag. Empty values keep the current ones.
func (p *Planner) UpdateTag(ctx context.Context, tagID, requester int, name, color string) (*model.Tag, error) {
	var tag model.Tag
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tagID).First(&tag).Error; err != nil {
			return lookup(err, "Tag")
		}
		if err := requireTagManager(tx, tag.ProjectID, requester); err != nil {
			return err
		}
		if name = strings.TrimSpace(name); name != "" {
			tag.Name = name
		}
		if color != "" {
			c, err := checkTagColor(color)
			if err != nil {
				return err
			}
			tag.HexColor = c
		}
		out.touch(tag.ProjectID)
		return tx.Model(&tag).Updates(map[string]any{"name": tag.Name, "hex_color": tag.HexColor}).Error
	})
	if err != nil {
		return nil, err
	}
	p.flush(ctx, out)
	return &tag, nil
}

// DeleteTag removes a tag and detaches it from every task.
func (p *Planner) DeleteTag(ctx context.Context, tagID, requester int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.Where("tag_id = ?", tagID).First(&tag).Error; err != nil {
			return lookup(err, "Tag")
		}
		if err := requireTagManager(tx, tag.ProjectID, requester); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id = ?", tagID).Error; err != nil {
			return err
		}
		out.touch(tag.ProjectID)
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return err
	}
	p.flush(ctx, out)
	return nil
}
