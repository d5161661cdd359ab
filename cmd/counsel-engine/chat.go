// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/counsel-engine/internal/cite"
	"github.com/meshintel/counsel-engine/internal/research"
	"github.com/meshintel/counsel-engine/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Run one streamed research turn",
	Long: `Chat runs a full research turn from the command line: the question is
safety-screened, authorities are searched and ranked, and the model's answer
streams to stdout with inline citation tokens, followed by the bibliography.

By default each invocation starts a new chat; pass --chat to continue an
existing one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

// stdoutSink streams tokens to stdout and progress to stderr. It keeps
// the streamed text so the final content, which may differ after
// citation renumbering or a safety rewrite, can be printed in its place.
type stdoutSink struct {
	streamed strings.Builder
}

func (s *stdoutSink) OnStatus(stage string) {
	fmt.Fprintf(os.Stderr, "[%s]\n", stage)
}

func (s *stdoutSink) OnToken(token string) error {
	s.streamed.WriteString(token)
	_, err := fmt.Print(token)
	return err
}

func (s *stdoutSink) OnContent(content string) {
	if content == strings.TrimSpace(s.streamed.String()) {
		return
	}
	fmt.Println()
	fmt.Println()
	fmt.Println(content)
}

func (s *stdoutSink) OnCitations([]types.Citation) {}

func runChat(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	engine, st, err := newEngine(os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	chatID, _ := cmd.Flags().GetString("chat")
	if chatID == "" {
		chat, err := st.CreateChat(ctx, "")
		if err != nil {
			return err
		}
		chatID = chat.ID
		fmt.Fprintf(os.Stderr, "Chat %s\n", chatID)
	}

	result, err := engine.Turn(ctx, chatID, question, &stdoutSink{})
	if err != nil {
		var blocked *research.BlockedError
		if errors.As(err, &blocked) {
			return fmt.Errorf("question rejected: %s", blocked.Error())
		}
		return err
	}

	fmt.Println()
	if bib := cite.RenderBibliography(result.Citations); bib != "" {
		fmt.Println()
		fmt.Println(bib)
	}
	return nil
}

func init() {
	chatCmd.Flags().String("chat", "", "continue an existing chat by ID")

	rootCmd.AddCommand(chatCmd)
}
