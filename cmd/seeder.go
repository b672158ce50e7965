package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a sample department hierarchy for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_entries", "announcements", "approval_requests", "work_reports", "weekly_plans", "personal_tasks", "tasks", "members", "role_configs"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)

		seedMembers := []struct {
			Name      string
			Email     string
			Role      permissions.Role
			ReportsTo string
		}{
			{"Diana Board", "diana@workdesk.local", permissions.RoleBoard, ""},
			{"Marcus Deputy", "marcus@workdesk.local", permissions.RoleDeputyDirector, "Board of Directors"},
			{"Maya Manager", "maya@workdesk.local", permissions.RoleManager, "Board of Directors"},
			{"Carl Content", "carl@workdesk.local", permissions.RoleContentManager, "Manager"},
			{"Lena Leader", "lena@workdesk.local", permissions.RoleContentLeader, "Content Manager"},
			{"Derek Designer", "derek@workdesk.local", permissions.RoleDesigner, "Content Leader"},
			{"Wren Writer", "wren@workdesk.local", permissions.RoleCopywriter, "Content Leader"},
			{"Sam Staff", "sam@workdesk.local", permissions.RoleStaff, "Team Leader"},
		}

		for _, s := range seedMembers {
			var exists int64
			db.Model(&member.Member{}).Where("email = ?", s.Email).Count(&exists)
			if exists > 0 {
				fmt.Printf("member %s already exists, skipping\n", s.Email)
				continue
			}

			now := time.Now()
			m := &member.Member{
				ID:         uuid.NewString(),
				Name:       s.Name,
				Email:      s.Email,
				Role:       s.Role,
				Department: "Marketing",
				ReportsTo:  s.ReportsTo,
				Password:   string(hash),
				IsActive:   true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := db.Create(m).Error; err != nil {
				log.Fatalf("failed to seed member %s: %v", s.Email, err)
			}
			fmt.Printf("Seeded member: %s (%s)\n", s.Name, s.Role)
		}

		fmt.Println("Seed complete; every member signs in with password \"password\"")
	},
}
