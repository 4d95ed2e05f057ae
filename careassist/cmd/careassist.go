// Command-line chat for the care assistant
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"careassist/careassist/config"
	"careassist/careassist/controllers"
	"careassist/careassist/services/llm"
	"careassist/careassist/services/sessions"
	"careassist/careassist/sources/psql"
	"careassist/careassist/sources/psql/dao"
	"careassist/careassist/utils/color"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	args := os.Args[1:]
	if len(args) < 1 || args[0] != "chat" {
		fmt.Println("careassist usage:")
		fmt.Println("  careassist chat   # talk to the care assistant in this terminal")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		fmt.Println(color.Error("could not open the chat database: " + err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	store := sessions.NewStore(dao.NewStateDAO(db.DB))
	if err := store.Load(ctx); err != nil {
		fmt.Println(color.Warning("some saved conversations could not be loaded"))
	}
	persona, err := llm.LoadPersona(cfg.PersonaFile)
	if err != nil {
		fmt.Println(color.Error(err.Error()))
		os.Exit(1)
	}
	gen, err := llm.NewGenerator(cfg)
	if err != nil {
		fmt.Println(color.Error(err.Error()))
		os.Exit(1)
	}
	gateway := llm.NewGateway(gen, persona)

	r := newREPL(store, gateway, os.Stdout)
	r.exportDir = getWorkingDir()
	r.run(context.Background(), os.Stdin)
}

type repl struct {
	chat      *controllers.ChatController
	sessions  *controllers.SessionController
	store     *sessions.Store
	out       io.Writer
	exportDir string
}

func newREPL(store *sessions.Store, gateway *llm.Gateway, out io.Writer) *repl {
	return &repl{
		chat:     controllers.NewChatController(store, gateway),
		sessions: controllers.NewSessionController(store, nil),
		store:    store,
		out:      out,
	}
}

func (r *repl) run(ctx context.Context, in io.Reader) {
	fmt.Fprintln(r.out, color.Info("Care Assistant. Ask anything about Alzheimer's care, or type /help."))
	if r.store.Credential() == "" {
		fmt.Fprintln(r.out, color.Warning("No API key yet. Add your Google AI Studio key with /key <value>."))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, color.Prompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !r.handle(ctx, line) {
			fmt.Fprintln(r.out, "Goodbye.")
			return
		}
	}
}

// handle runs one input line; false means quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return true
	}

	fields := strings.Fields(line)
	cmd, rest := fields[0], strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	switch cmd {
	case "/exit", "/quit":
		return false
	case "/help":
		r.help()
	case "/new":
		out, err := r.sessions.Create(ctx)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		fmt.Fprintln(r.out, color.Info("Started a new conversation."))
	case "/list":
		r.list()
	case "/switch":
		id, ok := r.resolve(rest)
		if !ok {
			return true
		}
		out, err := r.sessions.Activate(ctx, id)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		r.printSession(id)
	case "/delete":
		id, ok := r.resolve(rest)
		if !ok {
			return true
		}
		out, err := r.sessions.Delete(ctx, id)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		fmt.Fprintln(r.out, color.Info("Conversation deleted."))
	case "/title":
		id := r.store.ActiveSessionID()
		if id == "" {
			fmt.Fprintln(r.out, color.Warning("No conversation selected."))
			return true
		}
		out, err := r.sessions.Rename(ctx, id, rest)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		fmt.Fprintln(r.out, color.Info("Title updated."))
	case "/export":
		r.export(ctx, fields[1:])
	case "/key":
		out, err := r.sessions.SetAPIKey(ctx, rest)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		fmt.Fprintln(r.out, color.Info("API key saved."))
	case "/clear":
		out, err := r.sessions.ClearAll(ctx)
		if r.report(err) {
			return true
		}
		r.warn(out.Warning)
		fmt.Fprintln(r.out, color.Info("All conversations cleared."))
	default:
		fmt.Fprintln(r.out, color.Warning("Unknown command "+cmd+". Type /help."))
	}
	return true
}

func (r *repl) send(ctx context.Context, text string) {
	res, err := r.chat.Send(ctx, "", text)
	if r.report(err) {
		return
	}
	r.warn(res.Warning)
	reply := res.Reply.Content
	if res.Failed {
		fmt.Fprintln(r.out, color.Error(reply))
		return
	}
	fmt.Fprintln(r.out, color.Assistant(reply))
}

func (r *repl) list() {
	list := r.sessions.List()
	if len(list) == 0 {
		fmt.Fprintln(r.out, color.Dim("No conversations yet."))
		return
	}
	for _, s := range list {
		marker := "  "
		if s.Active {
			marker = "* "
		}
		fmt.Fprintf(r.out, "%s%s  %-50s %s\n", marker, shortID(s.ID), s.Title,
			color.Dim(fmt.Sprintf("%d msgs, %s", s.MessageCount, s.UpdatedAt.Local().Format("Jan 2 15:04"))))
	}
}

func (r *repl) export(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, color.Warning("Usage: /export <id> [json|yaml|md]"))
		return
	}
	id, ok := r.resolve(args[0])
	if !ok {
		return
	}
	format := ""
	if len(args) > 1 {
		format = args[1]
	}
	file, err := r.sessions.Export(ctx, id, format)
	if r.report(err) {
		return
	}
	path := filepath.Join(r.exportDir, file.Filename)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		fmt.Fprintln(r.out, color.Error("write export: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, color.Info("Exported to "+path))
}

func (r *repl) printSession(id string) {
	s, err := r.sessions.Get(id)
	if r.report(err) {
		return
	}
	fmt.Fprintln(r.out, color.Info("== "+s.Title))
	for _, m := range s.Messages {
		if m.Role == types.RoleAssistant {
			fmt.Fprintln(r.out, color.Assistant(m.Content))
		} else {
			fmt.Fprintln(r.out, color.Prompt("you> ")+m.Content)
		}
	}
}

// resolve accepts a full id or a unique prefix, as shown by /list.
func (r *repl) resolve(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		fmt.Fprintln(r.out, color.Warning("A conversation id is required. See /list."))
		return "", false
	}
	var match string
	for _, s := range r.sessions.List() {
		if s.ID == arg {
			return s.ID, true
		}
		if strings.HasPrefix(s.ID, arg) {
			if match != "" {
				fmt.Fprintln(r.out, color.Warning("Ambiguous id "+arg+"."))
				return "", false
			}
			match = s.ID
		}
	}
	if match == "" {
		fmt.Fprintln(r.out, color.Warning("No conversation "+arg+"."))
		return "", false
	}
	return match, true
}

// report prints err and returns true when there was one.
func (r *repl) report(err error) bool {
	if err == nil {
		return false
	}
	fmt.Fprintln(r.out, color.Error(errs.MessageOf(err)))
	return true
}

func (r *repl) warn(w string) {
	if w != "" {
		fmt.Fprintln(r.out, color.Warning("warning: "+w))
	}
}

func (r *repl) help() {
	fmt.Fprintln(r.out, `Commands:
  /new                     start a new conversation
  /list                    list conversations (* marks the selected one)
  /switch <id>             select a conversation
  /delete <id>             delete a conversation
  /title <text>            rename the selected conversation
  /export <id> [format]    save a conversation as json, yaml or md
  /key <value>             set your Google AI Studio API key
  /clear                   delete every conversation
  /exit                    quit
Anything else is sent to the assistant.`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func getWorkingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
