// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage persisted chats (list, show, delete)",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, most recently updated first",
	RunE:  runChatsList,
}

func runChatsList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfigFromViper())
	if err != nil {
		return err
	}
	defer st.Close()

	chats, err := st.ListChats(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chats)
	}

	if len(chats) == 0 {
		fmt.Println("No chats found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-50s  %s\n", "ID", "Title", "Updated")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, c := range chats {
		title := c.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-50s  %s\n", c.ID, title, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

var chatsShowCmd = &cobra.Command{
	Use:   "show [chat-id]",
	Short: "Show a chat transcript with citations",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsShow,
}

func runChatsShow(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfigFromViper())
	if err != nil {
		return err
	}
	defer st.Close()

	chat, err := st.GetChat(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chat)
	}

	fmt.Printf("%s (%s)\n\n", chat.Title, chat.ID)
	for _, m := range chat.Messages {
		role := "You"
		if m.Role == types.RoleAssistant {
			role = "Counsel"
		}
		fmt.Printf("%s [%s]:\n%s\n", role, m.CreatedAt.Format("2006-01-02 15:04"), m.Content)
		for _, c := range m.Citations {
			fmt.Printf("  [%d] %s\n", c.Marker, c.Cite)
		}
		fmt.Println()
	}
	return nil
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete [chat-id]",
	Short: "Delete a chat and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDelete,
}

func runChatsDelete(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfigFromViper())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteChat(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Deleted chat %s\n", args[0])
	return nil
}

var chatsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search across message history",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsSearch,
}

func runChatsSearch(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfigFromViper())
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("max-results")
	hits, err := st.SearchMessages(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, h := range hits {
		snippet := h.Content
		if len(snippet) > 100 {
			snippet = snippet[:97] + "..."
		}
		fmt.Printf("%s  %s\n  %s\n", h.ChatID, h.ChatTitle, snippet)
	}
	return nil
}

func init() {
	chatsListCmd.Flags().Bool("json", false, "output as JSON")
	chatsShowCmd.Flags().Bool("json", false, "output as JSON")
	chatsSearchCmd.Flags().Bool("json", false, "output as JSON")
	chatsSearchCmd.Flags().Int("max-results", 20, "maximum number of results")

	chatsCmd.AddCommand(chatsListCmd, chatsShowCmd, chatsDeleteCmd, chatsSearchCmd)
	rootCmd.AddCommand(chatsCmd)
}
