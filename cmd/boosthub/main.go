package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	appmod "github.com/boosthub/boosthub/internal/app"
	"github.com/boosthub/boosthub/internal/chat"
	"github.com/boosthub/boosthub/internal/event"
	"github.com/boosthub/boosthub/internal/geo"
	"github.com/boosthub/boosthub/internal/model"
	"github.com/boosthub/boosthub/internal/notify"
	"github.com/boosthub/boosthub/internal/profile"
	"github.com/boosthub/boosthub/internal/session"
	"go.uber.org/fx"
)

type cli struct {
	profiles *profile.Service
	events   *event.Service
	chats    *chat.Service
	resolver *geo.Resolver
	notices  *notify.Center
}

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var c cli
	application := fx.New(
		appmod.Module(appmod.Params{SessionName: sessionName}),
		fx.NopLogger,
		fx.Populate(&c.profiles, &c.events, &c.chats, &c.resolver, &c.notices),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	code := c.run(ctx, args)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = application.Stop(stopCtx)
	os.Exit(code)
}

func (c *cli) run(ctx context.Context, args []string) int {
	var err error
	switch args[0] {
	case "signup":
		err = requireArgs(args, 3, "signup <email> <password>")
		if err == nil {
			err = c.profiles.SignUp(ctx, args[1], args[2])
		}
	case "login":
		err = requireArgs(args, 3, "login <email> <password>")
		if err == nil {
			err = c.profiles.SignIn(ctx, args[1], args[2])
		}
	case "logout":
		c.profiles.SignOut()
	case "profile":
		err = c.runProfile(ctx, args[1:])
	case "event":
		err = c.runEvent(ctx, args[1:])
	case "chat":
		err = c.runChat(ctx, args[1:])
	case "locate":
		err = requireArgs(args, 2, "locate <query>")
		if err == nil {
			err = c.runLocate(ctx, args[1])
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		return 1
	}

	// Each operation leaves at most one terminal notice; taking it here
	// clears the slot so it is never shown twice.
	if msg, ok := c.notices.Take(); ok {
		fmt.Println(msg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: profile <show|name|password|image> ...")
	}
	switch args[0] {
	case "show":
		user, err := c.profiles.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> userName=%q image=%q\n", user.ID, user.Email, user.UserName, user.ImageURL)
		return nil
	case "name":
		if err := requireArgs(args, 2, "profile name <userName>"); err != nil {
			return err
		}
		return c.profiles.UpdateUserName(ctx, args[1])
	case "password":
		if err := requireArgs(args, 3, "profile password <new> <current>"); err != nil {
			return err
		}
		return c.profiles.ChangePassword(ctx, args[1], args[2])
	case "image":
		if err := requireArgs(args, 2, "profile image <file>"); err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return c.profiles.UploadImage(ctx, data)
	default:
		return fmt.Errorf("unknown profile command: %s", args[0])
	}
}

func (c *cli) runEvent(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: event <create|set|show> ...")
	}
	switch args[0] {
	case "create":
		if err := requireArgs(args, 4, "event create <title> <location> <date> [imageFile]"); err != nil {
			return err
		}
		var image []byte
		if len(args) > 4 {
			data, err := os.ReadFile(args[4])
			if err != nil {
				return err
			}
			image = data
		}
		ev := model.Event{Title: args[1], Location: args[2], Date: args[3]}
		id, err := c.events.Upload(ctx, ev, image)
		if id != "" {
			fmt.Println(id)
		}
		return err
	case "set":
		if err := requireArgs(args, 4, "event set <id> <field> <value>"); err != nil {
			return err
		}
		return c.setEventField(ctx, args[1], args[2], args[3])
	case "show":
		if err := requireArgs(args, 2, "event show <id>"); err != nil {
			return err
		}
		ev, err := c.events.Get(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s %q at %q on %q image=%q\n", ev.ID, ev.Title, ev.Location, ev.Date, ev.ImageURL)
		return nil
	default:
		return fmt.Errorf("unknown event command: %s", args[0])
	}
}

func (c *cli) setEventField(ctx context.Context, id, field, value string) error {
	switch field {
	case "whatsUp":
		return c.events.SetWhatsUp(ctx, id, value)
	case "location":
		return c.events.SetLocation(ctx, id, value)
	case "date":
		return c.events.SetDate(ctx, id, value)
	case "whosThere":
		return c.events.SetWhosThere(ctx, id, value)
	case "whatElse":
		return c.events.SetWhatElse(ctx, id, value)
	case "restrictions":
		return c.events.SetRestrictions(ctx, id, value)
	default:
		return fmt.Errorf("unknown event field: %s", field)
	}
}

func (c *cli) runChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chat <create|send|log> ...")
	}
	switch args[0] {
	case "create":
		if err := requireArgs(args, 2, "chat create <userId>"); err != nil {
			return err
		}
		id, err := c.chats.Create(ctx, args[1])
		if id != "" {
			fmt.Println(id)
		}
		return err
	case "send":
		if err := requireArgs(args, 3, "chat send <chatId> <text>"); err != nil {
			return err
		}
		_, err := c.chats.AddMessage(ctx, args[1], args[2])
		return err
	case "log":
		if err := requireArgs(args, 2, "chat log <chatId>"); err != nil {
			return err
		}
		msgs, err := c.chats.Messages(ctx, args[1])
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n",
				time.UnixMilli(m.CreatedAt).Format(time.RFC3339), m.SenderID, m.Content)
		}
		return nil
	default:
		return fmt.Errorf("unknown chat command: %s", args[0])
	}
}

func (c *cli) runLocate(ctx context.Context, query string) error {
	candidates, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, cand := range candidates {
		fmt.Printf("%f,%f  %s\n", cand.Latitude, cand.Longitude, cand.DisplayName)
	}
	return nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: boosthub [--session <name>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  signup <email> <password>              Create an account")
	fmt.Fprintln(os.Stderr, "  login <email> <password>               Sign in")
	fmt.Fprintln(os.Stderr, "  logout                                 Sign out")
	fmt.Fprintln(os.Stderr, "  profile show                           Show the signed-in profile")
	fmt.Fprintln(os.Stderr, "  profile name <userName>                Change the display name")
	fmt.Fprintln(os.Stderr, "  profile password <new> <current>       Change the password")
	fmt.Fprintln(os.Stderr, "  profile image <file>                   Upload a profile image")
	fmt.Fprintln(os.Stderr, "  event create <title> <loc> <date> [f]  Create an event (optional image)")
	fmt.Fprintln(os.Stderr, "  event set <id> <field> <value>         Update one event field")
	fmt.Fprintln(os.Stderr, "  event show <id>                        Show an event")
	fmt.Fprintln(os.Stderr, "  chat create <userId>                   Open a chat with a user")
	fmt.Fprintln(os.Stderr, "  chat send <chatId> <text>              Send a message")
	fmt.Fprintln(os.Stderr, "  chat log <chatId>                      Show a chat's messages")
	fmt.Fprintln(os.Stderr, "  locate <query>                         Resolve a location")
}
