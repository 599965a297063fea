package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragindex/internal/core/domain"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `Projects group documents. Each keeps a counter of the documents assigned
to it; deleting a project is soft unless --hard is given.`,
}

var projectCreateCmd = engineCmd(&cobra.Command{
	Use:   "create [name]",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
})

var projectListCmd = engineCmd(&cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
})

var projectGetCmd = engineCmd(&cobra.Command{
	Use:   "get [id|name]",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectGet,
})

var projectUpdateCmd = engineCmd(&cobra.Command{
	Use:   "update [id|name]",
	Short: "Rename or redescribe a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
})

var projectDeleteCmd = engineCmd(&cobra.Command{
	Use:   "delete [id|name]",
	Short: "Deactivate or remove a project",
	Long: `Deactivates a project. With --hard the record is removed; documents keep
their project ID in the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectDelete,
})

var projectRestoreCmd = engineCmd(&cobra.Command{
	Use:   "restore [id|name]",
	Short: "Reactivate a deactivated project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRestore,
})

var projectStatsCmd = engineCmd(&cobra.Command{
	Use:   "stats [id|name]",
	Short: "Show project statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectStats,
})

var projectReconcileCmd = engineCmd(&cobra.Command{
	Use:   "reconcile",
	Short: "Recompute document counters from the index",
	Args:  cobra.NoArgs,
	RunE:  runProjectReconcile,
})

var (
	projectDescription string
	projectName        string
	projectAll         bool
	projectHard        bool
	projectJSON        bool
)

func init() {
	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "project description")
	projectUpdateCmd.Flags().StringVar(&projectName, "name", "", "new project name")
	projectUpdateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "new project description")
	projectListCmd.Flags().BoolVarP(&projectAll, "all", "a", false, "include deactivated projects")
	projectListCmd.Flags().BoolVar(&projectJSON, "json", false, "output as JSON")
	projectGetCmd.Flags().BoolVar(&projectJSON, "json", false, "output as JSON")
	projectStatsCmd.Flags().BoolVar(&projectJSON, "json", false, "output as JSON")
	projectDeleteCmd.Flags().BoolVar(&projectHard, "hard", false, "remove the record instead of deactivating it")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectGetCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectRestoreCmd)
	projectCmd.AddCommand(projectStatsCmd)
	projectCmd.AddCommand(projectReconcileCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	if projectService == nil {
		return errNoProjects
	}
	p, err := projectService.Create(cmd.Context(), args[0], projectDescription, defaultUploader())
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	cmd.Printf("Project %d created: %s\n", p.ID, p.Name)
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	if projectService == nil {
		return errNoProjects
	}
	projects, err := projectService.List(cmd.Context(), !projectAll)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if projectJSON {
		return printJSON(cmd, projects)
	}
	if len(projects) == 0 {
		cmd.Println("No projects found.")
		return nil
	}

	for i := range projects {
		status := ""
		if !projects[i].Active {
			status = " (inactive)"
		}
		cmd.Printf("  [%d] %s%s - %d documents\n", projects[i].ID, projects[i].Name, status, projects[i].DocumentCount)
	}
	return nil
}

func runProjectGet(cmd *cobra.Command, args []string) error {
	p, err := resolveProject(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	if projectJSON {
		return printJSON(cmd, p)
	}

	cmd.Printf("Project: %d\n\n", p.ID)
	cmd.Printf("  Name:        %s\n", p.Name)
	if p.Description != "" {
		cmd.Printf("  Description: %s\n", p.Description)
	}
	cmd.Printf("  Active:      %t\n", p.Active)
	cmd.Printf("  Documents:   %d\n", p.DocumentCount)
	cmd.Printf("  Created by:  %s\n", p.CreatedBy)
	cmd.Printf("  Created:     %s\n", formatTime(&p.CreatedAt))
	if p.UpdatedAt != nil {
		cmd.Printf("  Updated:     %s\n", formatTime(p.UpdatedAt))
	}
	if p.DeactivatedAt != nil {
		cmd.Printf("  Deactivated: %s\n", formatTime(p.DeactivatedAt))
	}
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := resolveProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	var update domain.ProjectUpdate
	if cmd.Flags().Changed("name") {
		update.Name = &projectName
	}
	if cmd.Flags().Changed("description") {
		update.Description = &projectDescription
	}
	if update.Empty() {
		return fmt.Errorf("%w: nothing to update, pass --name or --description", domain.ErrInvalidInput)
	}

	updated, err := projectService.Update(ctx, p.ID, update)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	cmd.Printf("Project %d updated: %s\n", updated.ID, updated.Name)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := resolveProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}
	if err := projectService.Delete(ctx, p.ID, projectHard); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if projectHard {
		cmd.Printf("Project %d removed.\n", p.ID)
	} else {
		cmd.Printf("Project %d deactivated.\n", p.ID)
	}
	return nil
}

func runProjectRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := resolveProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}
	active := true
	if _, err := projectService.Update(ctx, p.ID, domain.ProjectUpdate{Active: &active}); err != nil {
		return fmt.Errorf("failed to restore project: %w", err)
	}
	cmd.Printf("Project %d restored.\n", p.ID)
	return nil
}

func runProjectStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := resolveProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}
	stats, err := projectService.Stats(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get project stats: %w", err)
	}

	if projectJSON {
		return printJSON(cmd, stats)
	}
	cmd.Printf("Project %d (%s)\n", stats.ProjectID, stats.Name)
	cmd.Printf("  Documents: %d\n", stats.DocumentCount)
	cmd.Printf("  Active:    %t\n", stats.Active)
	return nil
}

func runProjectReconcile(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}
	return reconcile(cmd)
}

func formatTime(t *time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
