// Command posctl is a terminal front end for the retail POS API.
//
//	posctl [-server URL] [-session FILE] <command> [args]
//
// Commands: login, logout, me, open, products, scan, sell, sales, dashboard,
// low-stock, consumption.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/client"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/query"
)

var errUsage = errors.New("usage: posctl [-server URL] [-session FILE] <login|logout|me|open|products|scan|sell|sales|dashboard|low-stock|consumption> [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "retail-pos", "session.json")
}

type cli struct {
	c      *client.Client
	in     *bufio.Scanner
	out    io.Writer
	policy *auth.Policy
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("posctl", flag.ContinueOnError)
	fs.SetOutput(stdout)
	server := fs.String("server", envOr("POS_SERVER", "http://localhost:8080"), "API base URL")
	sessionPath := fs.String("session", defaultSessionPath(), "session file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	session := client.NewSession(client.FileStorage{Path: *sessionPath})
	if err := session.Load(); err != nil {
		return err
	}
	app := &cli{
		c:      client.New(*server, session),
		in:     bufio.NewScanner(stdin),
		out:    stdout,
		policy: auth.DefaultPolicy(),
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd != "login" && !session.IsAuthenticated() {
		return errors.New("not signed in, run: posctl login <login>")
	}

	switch cmd {
	case "login":
		return app.login(ctx, rest)
	case "logout":
		return report(app.out, client.NewAuth(app.c).Logout(ctx), func(struct{}) string { return "signed out" })
	case "me":
		return app.me()
	case "open":
		return app.open(rest)
	case "products":
		return app.products(ctx, rest)
	case "scan":
		return app.scan(ctx, rest)
	case "sell":
		return app.sell(ctx)
	case "sales":
		return app.sales(ctx)
	case "dashboard":
		return app.dashboard(ctx)
	case "low-stock":
		return app.lowStock(ctx)
	case "consumption":
		return app.consumption(ctx, rest)
	}
	return errUsage
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// report prints the data on success and joins the messages into an error otherwise.
func report[T any](out io.Writer, res client.Result[T], format func(T) string) error {
	if !res.Success {
		return errors.New(strings.Join(res.Errors, "\n"))
	}
	fmt.Fprintln(out, format(res.Data))
	return nil
}

func (a *cli) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *cli) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: posctl login <login>")
	}
	password, ok := a.prompt("password: ")
	if !ok {
		return errors.New("no password given")
	}
	return report(a.out, client.NewAuth(a.c).Login(ctx, args[0], password), func(u client.User) string {
		return fmt.Sprintf("signed in as %s (%s)", u.Name, u.Role)
	})
}

func (a *cli) me() error {
	u, _ := a.c.Session().User()
	routes := make([]string, len(u.AllowedRoutes))
	for i, r := range u.AllowedRoutes {
		routes[i] = string(r)
	}
	fmt.Fprintf(a.out, "%s <%s> %s\nmenu: %s\n", u.Name, u.Login, u.Role, strings.Join(routes, ", "))
	return nil
}

// open shows where a section leads for the signed-in user.
func (a *cli) open(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: posctl open <route>")
	}
	want := auth.Route(args[0])
	got := a.c.Session().Navigate(a.policy, want)
	if got != want {
		fmt.Fprintf(a.out, "%s is not available, opening %s\n", want, got)
		return nil
	}
	fmt.Fprintf(a.out, "opening %s\n", got)
	return nil
}

func (a *cli) products(ctx context.Context, args []string) error {
	products := client.NewProducts(a.c)
	page := query.PageRequest{Size: 50}
	res := products.GetAll(ctx, page)
	if len(args) > 0 {
		res = products.Search(ctx, strings.Join(args, " "), page)
	}
	if !res.Success {
		return errors.New(strings.Join(res.Errors, "\n"))
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tPRICE\tSTOCK")
	for _, p := range res.Data.Content {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.SKU, p.Name, p.SalePrice.StringFixed(2), p.QuantityInStock)
	}
	fmt.Fprintf(tw, "\t%d of %d\t\t\n", len(res.Data.Content), res.Data.TotalElements)
	return tw.Flush()
}

func (a *cli) scan(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: posctl scan <barcode|sku>")
	}
	return report(a.out, client.NewProducts(a.c).ByCode(ctx, args[0]), func(p client.Product) string {
		return fmt.Sprintf("%s  %s  %s  (%d in stock)", p.SKU, p.Name, p.SalePrice.StringFixed(2), p.QuantityInStock)
	})
}

const sellHelp = `codes add one unit each; commands:
  qty <code> <n>   set quantity (0 removes)
  rm <code>        remove the line
  pay <method>     finish with CASH, CARD or PIX
  clear            empty the cart
  quit             leave without selling`

// sell runs a local cart: codes are resolved against the catalogue and the sale
// is submitted in one request at the end.
func (a *cli) sell(ctx context.Context) error {
	if a.c.Session().Navigate(a.policy, auth.RoutePOS) != auth.RoutePOS {
		return errors.New("your role cannot open the POS")
	}
	products := client.NewProducts(a.c)
	pos := client.NewPOS(a.c)
	codes := map[string]string{}
	var local cart.Cart

	fmt.Fprintln(a.out, sellHelp)
	for {
		line, ok := a.prompt(fmt.Sprintf("[%d items, %s] > ", len(local.Lines), local.Total().StringFixed(2)))
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit":
			return nil
		case "clear":
			local.Clear()
		case "pay":
			method := ""
			if len(fields) > 1 {
				method = fields[1]
			}
			res := pos.CheckoutLocal(ctx, &local, method)
			if !res.Success {
				a.printErrors(res.Errors)
				continue
			}
			fmt.Fprintf(a.out, "sale %s recorded, total %s\n", res.Data.ID, res.Data.TotalAmount.StringFixed(2))
			return nil
		case "qty":
			if len(fields) != 3 {
				fmt.Fprintln(a.out, "usage: qty <code> <n>")
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Fprintln(a.out, "quantity must be a number")
				continue
			}
			local.SetQuantity(codeID(codes, fields[1]), n)
		case "rm":
			if len(fields) == 2 {
				local.RemoveProduct(codeID(codes, fields[1]))
			}
		default:
			res := products.ByCode(ctx, fields[0])
			if !res.Success {
				a.printErrors(res.Errors)
				continue
			}
			p := res.Data
			codes[fields[0]] = p.ID
			local.AddProduct(cart.Item{ProductID: p.ID, Name: p.Name, UnitPrice: p.SalePrice})
		}
	}
}

func codeID(codes map[string]string, code string) string {
	if id, ok := codes[code]; ok {
		return id
	}
	return code
}

func (a *cli) printErrors(msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(a.out, "! "+m)
	}
}

func (a *cli) sales(ctx context.Context) error {
	today := time.Now()
	res := client.NewSales(a.c).List(ctx, client.SaleFilter{Start: today, End: today, Page: query.PageRequest{Size: 100}})
	if !res.Success {
		return errors.New(strings.Join(res.Errors, "\n"))
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCASHIER\tPAYMENT\tTOTAL\tSTATUS")
	for _, s := range res.Data.Content {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.CreatedAt.Local().Format("15:04"), s.CashierName, s.PaymentMethod, s.TotalAmount.StringFixed(2), s.Status)
	}
	return tw.Flush()
}

func (a *cli) dashboard(ctx context.Context) error {
	return report(a.out, client.NewReports(a.c).Dashboard(ctx), func(d query.Dashboard) string {
		return fmt.Sprintf("products: %d\nstock value: %s\nlow stock: %d\nsales today: %d (%s)",
			d.TotalProducts, d.TotalStockValue.StringFixed(2), d.LowStockCount, d.SalesToday.Count, d.SalesToday.Revenue.StringFixed(2))
	})
}

func (a *cli) lowStock(ctx context.Context) error {
	res := client.NewReports(a.c).LowStock(ctx)
	if !res.Success {
		return errors.New(strings.Join(res.Errors, "\n"))
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tSTOCK\tMIN")
	for _, p := range res.Data {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.SKU, p.Name, p.QuantityInStock, p.MinStock)
	}
	return tw.Flush()
}

func (a *cli) consumption(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: posctl consumption <start YYYY-MM-DD> <end YYYY-MM-DD>")
	}
	start, err := time.Parse(time.DateOnly, args[0])
	if err != nil {
		return err
	}
	end, err := time.Parse(time.DateOnly, args[1])
	if err != nil {
		return err
	}

	res := client.NewReports(a.c).DepartmentConsumption(ctx, start, end)
	if !res.Success {
		return errors.New(strings.Join(res.Errors, "\n"))
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPARTMENT\tITEMS\tVALUE")
	for _, d := range res.Data.Departments {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Department.Name, d.ItemsConsumed, d.TotalValueConsumed.StringFixed(2))
	}
	return tw.Flush()
}
