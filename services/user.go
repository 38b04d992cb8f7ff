package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"dunzo/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for any login failure.
var ErrInvalidCredentials = errors.New("invalid username or password")

const minPasswordLength = 8

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validation("Password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func emailTaken(tx *gorm.DB, email string, except int) (bool, error) {
	var count int64
	err := tx.Model(&model.User{}).Where("email = ? AND user_id <> ?", email, except).Count(&count).Error
	return count > 0, err
}

// Register creates an account with a bcrypt-hashed password.
func (p *Planner) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return nil, validation("Username is required")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:  in.Username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  hashed,
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("Username %s is already taken", user.Username)
		}
		if user.Email != nil {
			taken, err := emailTaken(tx, *user.Email, 0)
			if err != nil {
				return err
			}
			if taken {
				return conflict("Email %s is already registered", *user.Email)
			}
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks a username or email against the stored hash.
func (p *Planner) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var user model.User
	err := p.db.WithContext(ctx).Where("username = ? OR email = ?", identifier, identifier).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (p *Planner) GetProfile(ctx context.Context, requester int) (*model.User, error) {
	return GetUserdata(p.db.WithContext(ctx), requester)
}

func (p *Planner) UpdateProfile(ctx context.Context, requester int, in ProfileUpdate) (*model.User, error) {
	var user *model.User
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = GetUserdata(tx, requester)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		if in.FirstName != nil {
			user.FirstName = strings.TrimSpace(*in.FirstName)
			changes["first_name"] = user.FirstName
		}
		if in.LastName != nil {
			user.LastName = strings.TrimSpace(*in.LastName)
			changes["last_name"] = user.LastName
		}
		if in.Email != nil {
			email := strings.TrimSpace(*in.Email)
			if email == "" {
				user.Email = nil
				changes["email"] = nil
			} else {
				taken, err := emailTaken(tx, email, requester)
				if err != nil {
					return err
				}
				if taken {
					return conflict("Email %s is already registered", email)
				}
				user.Email = &email
				changes["email"] = email
			}
		}
		if in.Password != nil {
			hashed, err := hashPassword(*in.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
			changes["password"] = hashed
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(user).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateFCMToken stores the device token used for push delivery. An empty
// token turns push off.
func (p *Planner) UpdateFCMToken(ctx context.Context, requester int, token string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", requester).Update("fcm_token", strings.TrimSpace(token))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("User not found")
	}
	return nil
}

// DeleteAccount removes the user and everything they own. Projects where
// they are the only member go too; projects where they are the last Leader
// of other members block the deletion.
func (p *Planner) DeleteAccount(ctx context.Context, requester int) error {
	out := newOutbox()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := GetUserdata(tx, requester)
		if err != nil {
			return err
		}
		var memberships []model.ProjectMembership
		if err := tx.Where("user_id = ?", requester).Find(&memberships).Error; err != nil {
			return err
		}
		for _, m := range memberships {
			project, err := lockProject(tx, m.ProjectID)
			if err != nil {
				return err
			}
			var others int64
			if err := tx.Model(&model.ProjectMembership{}).Where("project_id = ? AND user_id <> ?", m.ProjectID, requester).Count(&others).Error; err != nil {
				return err
			}
			if others == 0 {
				if err := purgeProject(tx, m.ProjectID); err != nil {
					return err
				}
				continue
			}
			if m.Role == model.RoleLeader {
				leaders, err := countLeaders(tx, m.ProjectID)
				if err != nil {
					return err
				}
				if leaders <= 1 {
					return invalid("Transfer leadership of %s before deleting your account", project.Title)
				}
			}
			out.touch(m.ProjectID)
		}

		if err := tx.Where("user_id = ?", requester).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", requester).Delete(&model.EventParticipant{}).Error; err != nil {
			return err
		}
		if err := purgeEvents(tx, "created_by = ?", requester); err != nil {
			return err
		}
		var authored []int
		if err := tx.Model(&model.Comment{}).Where("user_id = ?", requester).Pluck("comment_id", &authored).Error; err != nil {
			return err
		}
		if err := deleteThreads(tx, authored); err != nil {
			return err
		}
		if err := tx.Model(&model.TimelineEntry{}).Where("user_id = ?", requester).Update("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", requester).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", requester).Delete(&model.ProjectMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return err
	}
	if p.mirror != nil {
		if err := p.mirror.PurgeUser(ctx, requester); err != nil {
			log.Printf("Warning: failed to purge mirrored notifications of user %d: %v", requester, err)
		}
	}
	p.flush(ctx, out)
	return nil
}
