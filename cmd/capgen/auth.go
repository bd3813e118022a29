package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jmallet/capgen/internal/session"
)

func loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the caption service",
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			if email == "" {
				email, err = promptLine("Email: ")
				if err != nil {
					exitOnError(err)
				}
			}

			password, err := promptPassword("Password: ")
			if err != nil {
				exitOnError(err)
			}

			res, err := client.Login(context.Background(), email, password)
			if err != nil {
				exitOnError(fmt.Errorf("login failed: %w", err))
			}

			sess := session.Session{Token: res.AccessToken, User: &res.User}
			if err := sessStore.Save(sess); err != nil {
				exitOnError(err)
			}

			color.Green("Welcome %s!", res.User.Name)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func signupCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a caption service account",
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			if name == "" {
				name, err = promptLine("Name: ")
				if err != nil {
					exitOnError(err)
				}
			}
			if email == "" {
				email, err = promptLine("Email: ")
				if err != nil {
					exitOnError(err)
				}
			}

			password, err := promptPassword("Password: ")
			if err != nil {
				exitOnError(err)
			}

			res, err := client.Signup(context.Background(), name, email, password)
			if err != nil {
				exitOnError(fmt.Errorf("signup failed: %w", err))
			}

			color.Green("Account created for %s.", res.Name)
			fmt.Println("Run 'capgen login' to start captioning.")
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			if err := sessStore.Clear(); err != nil {
				exitOnError(err)
			}
			fmt.Println("You have been logged out.")
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Run: func(cmd *cobra.Command, args []string) {
			if !current.Authenticated() {
				fmt.Println("Not logged in (guest mode: one free generation).")
				return
			}
			if current.User != nil {
				fmt.Printf("Logged in as %s <%s>\n", current.User.Name, current.User.Email)
				return
			}
			fmt.Println("Logged in.")
		},
	}
}
