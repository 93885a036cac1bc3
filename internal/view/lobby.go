// Package view renders the lobby page: a live list of who is in the room,
// refreshed by htmx polling.
package view

import (
	"fmt"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"
)

const (
	// ParticipantsPath serves the polled fragment.
	ParticipantsPath = "/lobby/participants"

	htmxSrc = "https://unpkg.com/htmx.org@2.0.4"
)

// LobbyPage is the full lobby document.
func LobbyPage(participants []domain.Participant, now time.Time, poll time.Duration) gomponents.Node {
	return components.HTML5(components.HTML5Props{
		Title:    "Bate-papo",
		Language: "pt-BR",
		Head: []gomponents.Node{
			Script(Src(htmxSrc)),
		},
		Body: []gomponents.Node{
			Main(
				H1(gomponents.Text("Bate-papo")),
				ParticipantList(participants, now, poll),
			),
		},
	})
}

// ParticipantList is the fragment that replaces itself every poll interval.
func ParticipantList(participants []domain.Participant, now time.Time, poll time.Duration) gomponents.Node {
	return Section(
		ID("participants"),
		hx.Get(ParticipantsPath),
		hx.Trigger(fmt.Sprintf("every %ds", max(1, int(poll.Seconds())))),
		hx.Swap("outerHTML"),
		H2(gomponents.Textf("Na sala (%d)", len(participants))),
		gomponents.If(len(participants) == 0,
			P(Class("empty"), gomponents.Text("Ninguém na sala.")),
		),
		gomponents.If(len(participants) > 0,
			Ul(gomponents.Map(participants, func(p domain.Participant) gomponents.Node {
				return participantItem(p, now)
			})),
		),
	)
}

func participantItem(p domain.Participant, now time.Time) gomponents.Node {
	idle := now.Sub(p.LastHeartbeat).Truncate(time.Second)
	return Li(
		Span(Class("name"), gomponents.Text(p.Name)),
		gomponents.Text(" "),
		Span(Class("idle"), gomponents.Textf("(visto há %s)", idle)),
	)
}
