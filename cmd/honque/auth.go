package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the session store and print a token",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		return authenticate(cmd, e, e.remoteLogin)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the session store and print a token",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		return authenticate(cmd, e, e.remoteRegister)
	}),
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	rootCmd.AddCommand(loginCmd, registerCmd)
}

func (e *env) remoteLogin(ctx context.Context, email, password string) (string, error) {
	return e.remote.Login(ctx, email, password)
}

func (e *env) remoteRegister(ctx context.Context, email, password string) (string, error) {
	return e.remote.Register(ctx, email, password)
}

func authenticate(cmd *cobra.Command, e *env, fn func(ctx context.Context, email, password string) (string, error)) error {
	if e.remote == nil {
		return errors.New("cannot authenticate while offline")
	}
	token, err := fn(cmd.Context(), authEmail, authPassword)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successStyle.Render("Authenticated as "+authEmail))
	fmt.Fprintln(out, mutedStyle.Render("Set it in client.token or export HONQUEDORO_CLIENT_TOKEN:"))
	fmt.Fprintln(out, token)
	return nil
}
