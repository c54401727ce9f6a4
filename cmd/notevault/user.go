package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local accounts",
}

var userAddCmd = &cobra.Command{
	Use:     "add <username>",
	Short:   "Create an account",
	Example: `  notevault user add alice`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change an account password",
	Long: `Passwd re-encrypts every note of the account under the new password and
then replaces the stored verifier. It refuses to run while any note is
unreadable.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserPasswd,
}

var userRemoveCmd = &cobra.Command{
	Use:   "rm <username>",
	Short: "Delete an account and its notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserRemove,
}

var (
	userPassword    string
	userNewPassword string
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd, userPasswdCmd, userRemoveCmd)

	for _, c := range []*cobra.Command{userAddCmd, userPasswdCmd, userRemoveCmd} {
		c.Flags().StringVarP(&userPassword, "password", "p", "",
			"Password (will prompt if not provided)")
	}
	userPasswdCmd.Flags().StringVar(&userNewPassword, "new-password", "",
		"New password (will prompt if not provided)")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(userPassword, "Password: ", true)
	if err != nil {
		return err
	}

	user, err := a.users.Create(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"user":    user,
		})
	} else {
		printSuccess("Created user %s", user.Username)
	}
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.users.List(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"users": names})
		return nil
	}
	if len(names) == 0 {
		printInfo("No users")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	oldPassword, err := readPassword(userPassword, "Current password: ", false)
	if err != nil {
		return err
	}
	newPassword, err := readPassword(userNewPassword, "New password: ", true)
	if err != nil {
		return err
	}
	if err := a.users.CheckPassword(args[0], newPassword); err != nil {
		return err
	}

	if err := a.notes.ChangePassword(cmd.Context(), a.users, args[0], oldPassword, newPassword); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Password changed for %s", args[0])
	}
	return nil
}

func runUserRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(userPassword, "Password: ", false)
	if err != nil {
		return err
	}

	user, err := a.users.Authenticate(ctx, args[0], password)
	if err != nil {
		return err
	}

	// An empty set removes every record of the user.
	if err := a.repo.SaveAll(ctx, user, password, nil); err != nil {
		return err
	}
	if err := a.users.Delete(ctx, user.Username); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Deleted user %s", user.Username)
	}
	return nil
}
