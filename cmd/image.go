/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatflow/internal/chatflow"
	"chatflow/internal/chatflow/openai"
)

var (
	imageModel string
	imageN     int
	imageSize  string
)

// imageCmd represents the image command
var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate images from a prompt",
	Long: `Send a prompt to the configured image generation model and print the
resulting image URLs. The exchange is recorded in the current conversation
session like any other message.

If no prompt is provided as an argument, it reads from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var prompt string
		if len(args) > 0 {
			prompt = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			prompt = strings.TrimSpace(string(input))
		}

		st, cfg, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		opts := openai.ImageOptions{
			Model: cfg.ImageModel,
			N:     imageN,
			Size:  cfg.ImageSize,
		}
		if imageModel != "" {
			opts.Model = imageModel
		}
		if imageSize != "" {
			opts.Size = imageSize
		}
		if err := openai.ValidateImageRequest(prompt, opts); err != nil {
			return err
		}

		if err := st.SendImagePrompt(context.Background(), prompt, opts); err != nil {
			return fmt.Errorf("image request failed: %w", err)
		}

		sess, ok := st.CurrentSession()
		if !ok || len(sess.Messages) == 0 {
			return nil
		}
		last := sess.Messages[len(sess.Messages)-1]
		if last.Type != chatflow.MessageImage {
			return nil
		}
		if last.Metadata != nil && last.Metadata.Description != "" {
			fmt.Println(last.Metadata.Description)
		}
		for _, url := range last.ImageURLs {
			fmt.Println(url)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringVarP(&imageModel, "model", "m", "", "Image model to use")
	imageCmd.Flags().IntVar(&imageN, "n", 1, "Number of images to generate (1-10)")
	imageCmd.Flags().StringVar(&imageSize, "size", "", "Image size (256x256, 512x512, 1024x1024)")
}
