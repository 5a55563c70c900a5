package state

import (
	"context"
	"fmt"
	"time"

	"documind/internal/localstore"
	"documind/internal/model"
)

type seedAccount struct {
	user     model.User
	password string
}

var defaultAccounts = []seedAccount{
	{
		user: model.User{
			ID:     "u-admin",
			Name:   "System Admin",
			Email:  "admin@documind.pro",
			Avatar: "https://picsum.photos/seed/admin/100/100",
			Role:   model.RoleAdmin,
			Status: model.UserActive,
		},
		password: "admin123",
	},
	{
		user: model.User{
			ID:     "u-user",
			Name:   "Standard User",
			Email:  "user@documind.pro",
			Avatar: "https://picsum.photos/seed/user/100/100",
			Role:   model.RoleUser,
			Status: model.UserActive,
		},
		password: "user123",
	},
}

func (c *Controller) seedUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(defaultAccounts))
	for _, a := range defaultAccounts {
		hash, err := c.passwords.Hash(a.password)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", a.user.Email, err)
		}
		u := a.user
		u.PasswordHash = hash
		users = append(users, u)
	}
	if err := localstore.SaveAll(ctx, c.store, localstore.Users, users); err != nil {
		return nil, storageErr(err)
	}
	c.logger.Info().Int("users", len(users)).Msg("seeded default accounts")
	return users, nil
}

func (c *Controller) seedDemo(ctx context.Context) ([]model.Document, []model.Folder, []model.AuditLog, error) {
	docs, folders, logs := demoDocuments(), demoFolders(), demoAuditLogs()

	if err := localstore.SaveAll(ctx, c.store, localstore.Documents, docs); err != nil {
		return nil, nil, nil, storageErr(err)
	}
	if err := localstore.SaveAll(ctx, c.store, localstore.Folders, folders); err != nil {
		return nil, nil, nil, storageErr(err)
	}
	if err := localstore.SaveAll(ctx, c.store, localstore.AuditLogs, logs); err != nil {
		return nil, nil, nil, storageErr(err)
	}
	c.logger.Info().
		Int("documents", len(docs)).
		Int("folders", len(folders)).
		Int("audit_logs", len(logs)).
		Msg("seeded demo content")
	return docs, folders, logs, nil
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func demoFolders() []model.Folder {
	folders := make([]model.Folder, 0, 9)
	for i := 1; i <= 9; i++ {
		folders = append(folders, model.Folder{
			ID:        fmt.Sprintf("kebele-%d", i),
			Name:      fmt.Sprintf("Kebele %d", i),
			CreatedAt: time.Date(2024, time.January, i, 0, 0, 0, 0, time.UTC),
		})
	}
	return folders
}

func demoDocuments() []model.Document {
	return []model.Document{
		{
			ID:             "d1",
			Name:           "Q4 Strategy.pdf",
			Type:           model.FileTypePDF,
			OwnerID:        "u1",
			FolderID:       model.String("kebele-1"),
			LastModified:   ts("2024-03-15T10:30:00Z"),
			Size:           "2.4 MB",
			CurrentVersion: 3,
			Versions: []model.DocumentVersion{
				{ID: "v3", VersionNumber: 3, UpdatedAt: ts("2024-03-15T10:30:00Z"), Author: "Alex Rivera", ChangeNote: "Final approval version", Size: "2.4 MB"},
				{ID: "v2", VersionNumber: 2, UpdatedAt: ts("2024-03-10T09:15:00Z"), Author: "Sarah Chen", ChangeNote: "Added SWOT analysis", Size: "2.2 MB"},
				{ID: "v1", VersionNumber: 1, UpdatedAt: ts("2024-03-01T14:00:00Z"), Author: "Alex Rivera", ChangeNote: "Initial draft", Size: "1.8 MB"},
			},
			Tags:      []string{"Strategy", "Q4"},
			IsStarred: true,
		},
		{
			ID:             "d2",
			Name:           "Employment_Agreement.docx",
			Type:           model.FileTypeDOCX,
			OwnerID:        "u1",
			FolderID:       model.String("kebele-2"),
			LastModified:   ts("2024-03-12T16:45:00Z"),
			Size:           "450 KB",
			CurrentVersion: 1,
			Versions: []model.DocumentVersion{
				{ID: "v1_d2", VersionNumber: 1, UpdatedAt: ts("2024-03-12T16:45:00Z"), Author: "Legal Team", ChangeNote: "Standard template", Size: "450 KB"},
			},
			Tags: []string{"Legal", "HR"},
		},
		{
			ID:             "d4",
			Name:           "Site_Inspection_North.jpg",
			Type:           model.FileTypeIMG,
			OwnerID:        "u1",
			FolderID:       model.String("kebele-1"),
			LastModified:   ts("2024-03-22T11:20:00Z"),
			Size:           "1.8 MB",
			CurrentVersion: 1,
			Versions: []model.DocumentVersion{
				{ID: "v1_d4", VersionNumber: 1, UpdatedAt: ts("2024-03-22T11:20:00Z"), Author: "Field Agent", ChangeNote: "Initial capture", Size: "1.8 MB"},
			},
			Tags: []string{"Inspection", "Field"},
		},
		{
			ID:             "d3",
			Name:           "Revenue_Projections.xlsx",
			Type:           model.FileTypeXLSX,
			OwnerID:        "u1",
			FolderID:       model.String("kebele-3"),
			LastModified:   ts("2024-03-20T08:00:00Z"),
			Size:           "1.1 MB",
			CurrentVersion: 1,
			Versions: []model.DocumentVersion{
				{ID: "v1_d3", VersionNumber: 1, UpdatedAt: ts("2024-03-20T08:00:00Z"), Author: "Finance", ChangeNote: "Initial input", Size: "1.1 MB"},
			},
			Tags:      []string{"Finance", "2024"},
			IsStarred: true,
		},
	}
}

func demoAuditLogs() []model.AuditLog {
	return []model.AuditLog{
		{ID: "l1", DocID: "d1", DocName: "Q4 Strategy.pdf", Action: model.AuditUpdated, User: "Alex Rivera", Timestamp: ts("2024-03-15T10:30:00Z")},
		{ID: "l2", DocID: "d3", DocName: "Revenue_Projections.xlsx", Action: model.AuditCreated, User: "Finance", Timestamp: ts("2024-03-20T08:00:00Z")},
		{ID: "l3", DocID: "d1", DocName: "Q4 Strategy.pdf", Action: model.AuditDownloaded, User: "Sarah Chen", Timestamp: ts("2024-03-16T11:20:00Z")},
	}
}
