package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/TTTT0803/VKUMentor-App/internal/client"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

var (
	listPages  int
	listFilter string
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Autentica e mostra a tela inicial escolhida",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		_, navigation, cleanup, err := signIn(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println(headerStyle.Render("VKU Mentor"))
		printState(navigation)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Mostra usuário e papel resolvido",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		app, _, cleanup, err := signIn(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		printState(client.Navigation{State: app.Whoami()})
		return nil
	},
}

var mentorsCmd = &cobra.Command{
	Use:   "mentors",
	Short: "Lista mentores aprovados",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		app, _, cleanup, err := signIn(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		list, err := app.Mentors(ctx, listPages, listFilter)
		if err != nil {
			return err
		}
		printMentors("Mentores", list)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Lista cadastros de mentor aguardando aprovação (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		app, _, cleanup, err := signIn(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		list, err := app.PendingMentors(ctx, listPages, listFilter)
		if err != nil {
			return err
		}
		printMentors("Aguardando aprovação", list)
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Lista posts da comunidade, mais recentes primeiro",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		app, _, cleanup, err := signIn(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		list, err := app.Posts(ctx, listPages, listFilter)
		if err != nil {
			return err
		}

		fmt.Println(headerStyle.Render("Comunidade"))
		for _, p := range list.Items {
			fmt.Printf("%s %s\n", titleStyle.Render(p.Title), idStyle.Render(p.ID))
			fmt.Printf("  %s\n", dimStyle.Render(p.Date))
		}
		printFooter(len(list.Items), list.Loaded, list.HasMore)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{mentorsCmd, pendingCmd, postsCmd} {
		c.Flags().IntVar(&listPages, "pages", 1, "páginas a carregar (a primeira mais as de \"carregar mais\")")
		c.Flags().StringVar(&listFilter, "filter", "", "filtro de texto sobre os itens carregados")
	}
}

func printState(n client.Navigation) {
	s := n.State
	fmt.Printf("%s %s\n", dimStyle.Render("usuário:"), idStyle.Render(s.UserID))
	fmt.Printf("%s %s\n", dimStyle.Render("papel:"), roleStyle.Render(s.RoleName))
	fmt.Printf("%s %s\n", dimStyle.Render("status:"), string(s.Status))
	if n.Destination != "" {
		fmt.Printf("%s %s\n", dimStyle.Render("tela:"), titleStyle.Render(string(n.Destination)))
	}
}

func printMentors(title string, list client.Listing[repo.MentorInfo]) {
	fmt.Println(headerStyle.Render(title))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NOME\tÁREA\tORGANIZAÇÃO\tID")
	for _, m := range list.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Expertise, m.Organization, idStyle.Render(m.ID))
	}
	_ = w.Flush()
	printFooter(len(list.Items), list.Loaded, list.HasMore)
}

func printFooter(shown, loaded int, hasMore bool) {
	more := "fim da lista"
	if hasMore {
		more = "há mais páginas (--pages)"
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d de %d carregados · %s", shown, loaded, more)))
}
