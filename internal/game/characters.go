package game

import "sort"

// MaxSeats is the size of the character roster; a room never seats more
// active players than this.
const MaxSeats = 4

// Character is one of the fixed roster identities.
type Character struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Roster is the fixed character lineup, in seat order.
var Roster = [MaxSeats]Character{
	{Name: "Mario", Color: "red"},
	{Name: "Luigi", Color: "green"},
	{Name: "Yoshi", Color: "blue"},
	{Name: "Birdo", Color: "pink"},
}

// RosterNames returns the character names in seat order.
func RosterNames() []string {
	names := make([]string, 0, MaxSeats)
	for _, c := range Roster {
		names = append(names, c.Name)
	}
	return names
}

// CharacterByName looks up a roster character by name.
func CharacterByName(name string) (Character, bool) {
	for _, c := range Roster {
		if c.Name == name {
			return c, true
		}
	}
	return Character{}, false
}

// Participant is the membership view the assignment works from.
type Participant struct {
	ID       string
	Name     string
	Active   bool
	JoinedAt int64
}

// Assignment binds a player to a roster character.
type Assignment struct {
	PlayerID   string
	PlayerName string
	Character  Character
}

// AssignCharacters maps the active participants, sorted by join time
// ascending, onto the roster by position. The result is a pure function
// of its input: every peer recomputing it from the same membership
// snapshot gets an identical seating, which is what makes independent
// recomputation safe. Ties on JoinedAt break on player ID so clocks
// with millisecond resolution cannot produce divergent seatings.
func AssignCharacters(participants []Participant) []Assignment {
	active := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Active {
			active = append(active, p)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].JoinedAt != active[j].JoinedAt {
			return active[i].JoinedAt < active[j].JoinedAt
		}
		return active[i].ID < active[j].ID
	})

	if len(active) > MaxSeats {
		active = active[:MaxSeats]
	}

	assignments := make([]Assignment, 0, len(active))
	for i, p := range active {
		assignments = append(assignments, Assignment{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Character:  Roster[i],
		})
	}
	return assignments
}

// CharacterFor returns the character assigned to playerID, if seated.
func CharacterFor(assignments []Assignment, playerID string) (Character, bool) {
	for _, a := range assignments {
		if a.PlayerID == playerID {
			return a.Character, true
		}
	}
	return Character{}, false
}

// TurnOrder returns the seated character names in seat order, the list
// the engine resolves turns against.
func TurnOrder(assignments []Assignment) []string {
	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		names = append(names, a.Character.Name)
	}
	return names
}
