package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ChatRequest represents the chat API request.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

// ChatResponse represents the chat API response.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question",
		Long: `Ask the assistant a question. With no arguments, starts an
interactive session where follow-up questions share conversational context.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			outputJSON, _ := cmd.Flags().GetBool("output")

			if len(args) == 1 {
				return askOnce(api, sessionID, args[0], outputJSON)
			}
			return askInteractive(api, sessionID)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID for multi-turn context (default: random)")

	return cmd
}

func askOnce(api *APIClient, sessionID, question string, outputJSON bool) error {
	var resp ChatResponse
	if err := api.Post("/api/chat", ChatRequest{Question: question, SessionID: sessionID}, &resp); err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(resp.Answer)
	return nil
}

func askInteractive(api *APIClient, sessionID string) error {
	fmt.Printf("session %s (ctrl-d to exit)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		var resp ChatResponse
		if err := api.Post("/api/chat", ChatRequest{Question: question, SessionID: sessionID}, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(resp.Answer)
	}

	return scanner.Err()
}
