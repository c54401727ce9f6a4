package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/notevault/internal/models"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Read and write a user's notes",
}

var noteAddCmd = &cobra.Command{
	Use:     "add <username>",
	Short:   "Add a note",
	Example: `  notevault note add alice --title "Groceries" --content "milk, eggs"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteAdd,
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <username> <note-id>",
	Short: "Replace the title and content of a note",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteEdit,
}

var noteListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteList,
}

var noteShowCmd = &cobra.Command{
	Use:   "show <username> <note-id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteShow,
}

var noteRemoveCmd = &cobra.Command{
	Use:   "rm <username> <note-id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteRemove,
}

var (
	notePassword string
	noteTitle    string
	noteContent  string
)

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteEditCmd, noteListCmd, noteShowCmd, noteRemoveCmd)

	for _, c := range []*cobra.Command{noteAddCmd, noteEditCmd, noteListCmd, noteShowCmd, noteRemoveCmd} {
		c.Flags().StringVarP(&notePassword, "password", "p", "",
			"Password (will prompt if not provided)")
	}
	for _, c := range []*cobra.Command{noteAddCmd, noteEditCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
		c.Flags().StringVar(&noteContent, "content", "", "Note content")
	}
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(notePassword, "Password: ", false)
	if err != nil {
		return err
	}

	note, err := a.notes.AddNote(cmd.Context(), args[0], password, noteTitle, noteContent)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "id": note.ID})
	} else {
		printSuccess("Saved note %s", note.ID)
	}
	return nil
}

func runNoteEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(notePassword, "Password: ", false)
	if err != nil {
		return err
	}

	note, err := a.notes.EditNote(cmd.Context(), args[0], password, args[1], noteTitle, noteContent)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "id": note.ID})
	} else {
		printSuccess("Updated note %s", note.ID)
	}
	return nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(notePassword, "Password: ", false)
	if err != nil {
		return err
	}

	list, failures, err := a.notes.ListNotes(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	if jsonOutput {
		unreadable := make([]string, 0, len(failures))
		for _, f := range failures {
			unreadable = append(unreadable, f.NoteID)
		}
		printJSON(map[string]interface{}{
			"notes":      list,
			"unreadable": unreadable,
		})
		return nil
	}

	if len(list) == 0 {
		printInfo("No notes")
	}
	for _, n := range list {
		fmt.Printf("%s  %s  %s\n", n.ID, n.UpdatedAt.Local().Format(time.DateTime), n.Title)
	}
	for _, f := range failures {
		printWarning("Could not open %s: %s", f.NoteID, userMessage(f.Err))
	}
	return nil
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(notePassword, "Password: ", false)
	if err != nil {
		return err
	}

	note, err := a.notes.ShowNote(cmd.Context(), args[0], password, args[1])
	if err != nil {
		return err
	}

	printNote(note)
	return nil
}

func runNoteRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(notePassword, "Password: ", false)
	if err != nil {
		return err
	}

	if err := a.notes.RemoveNote(cmd.Context(), args[0], password, args[1]); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
	} else {
		printSuccess("Deleted note %s", args[1])
	}
	return nil
}

func printNote(note models.Note) {
	if jsonOutput {
		printJSON(note)
		return
	}

	printInfo("%s", note.Title)
	fmt.Printf("id:      %s\ncreated: %s\nupdated: %s\n\n%s\n",
		note.ID,
		note.CreatedAt.Local().Format(time.DateTime),
		note.UpdatedAt.Local().Format(time.DateTime),
		note.Content)
}
