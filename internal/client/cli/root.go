package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Root() {
	ctx := context.Background()

	log.Println("Welcome to MediaVault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("mvault %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			a.printHelp()
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			a.Logout()
		case "exit", "quit":
			return
		default:
			if !a.isLoggedIn() {
				fmt.Println("Please login first (type 'login' or 'register').")
				continue
			}
			err = a.runCommand(ctx, cmd)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func (a *App) runCommand(ctx context.Context, cmd string) error {
	switch cmd {
	case "upload":
		return a.upload(ctx)
	case "list":
		return a.list(ctx)
	case "my":
		return a.myItems(ctx)
	case "fetch":
		return a.fetch(ctx)
	case "verify":
		return a.verify(ctx)
	case "request":
		return a.requestAccess(ctx)
	case "incoming":
		return a.incoming(ctx)
	case "outgoing":
		return a.outgoing(ctx)
	case "approve":
		return a.approve(ctx)
	case "reject":
		return a.reject(ctx)
	default:
		fmt.Println("Unknown command, type 'help'.")
		return nil
	}
}

func (a *App) printHelp() {
	if a.isLoggedIn() {
		fmt.Println("Commands: upload, list, my, fetch, verify, request, incoming, outgoing, approve, reject, logout, exit")
	} else {
		fmt.Println("Commands: register, login, exit")
	}
}
