package tictactoe

import "encoding/json"

type Role string

const (
	RoleX Role = "X"
	RoleO Role = "O"
)

// roleOrder - fixed assignment priority: X fills before O.
var roleOrder = [2]Role{RoleX, RoleO}

// Opponent returns the other playing role.
func (that Role) Opponent() Role {
	if that == RoleX {
		return RoleO
	}
	return RoleX
}

// Cell is a single board position. An empty cell marshals as JSON null so
// clients see board: ["X", null, ...].
type Cell string

const EmptyCell Cell = ""

func (that Cell) MarshalJSON() ([]byte, error) {
	if that == EmptyCell {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = EmptyCell
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	*that = Cell(value)

	return nil
}

// Players - the client-facing slot projection, nil for an empty seat.
type Players struct {
	X *string `json:"X"`
	O *string `json:"O"`
}

// SlotRegistry maps the fixed X/O roles to player identifiers. Each player
// holds at most one role at a time.
type SlotRegistry struct {
	roles map[Role]string
}

func NewSlotRegistry() *SlotRegistry {
	return &SlotRegistry{
		roles: make(map[Role]string, len(roleOrder)),
	}
}

// Assign gives the player the first empty role in priority order. Assigning
// an already-seated player returns their existing role unchanged. An empty
// identifier never holds a seat.
func (that *SlotRegistry) Assign(playerID string) (Role, bool) {
	if playerID == "" {
		return "", false
	}

	if role, ok := that.RoleOf(playerID); ok {
		return role, true
	}

	for _, role := range roleOrder {
		if _, taken := that.roles[role]; !taken {
			that.roles[role] = playerID
			return role, true
		}
	}

	return "", false
}

// Remove clears the role held by the player. Unknown players are a no-op.
func (that *SlotRegistry) Remove(playerID string) {
	for role, id := range that.roles {
		if id == playerID {
			delete(that.roles, role)
		}
	}
}

func (that *SlotRegistry) RoleOf(playerID string) (Role, bool) {
	for _, role := range roleOrder {
		if id, ok := that.roles[role]; ok && id == playerID {
			return role, true
		}
	}

	return "", false
}

func (that *SlotRegistry) IsFull() bool {
	return len(that.roles) == len(roleOrder)
}

func (that *SlotRegistry) CanAcceptMore() bool {
	return !that.IsFull()
}

func (that *SlotRegistry) Count() int {
	return len(that.roles)
}

// Players returns the projection used in snapshots.
func (that *SlotRegistry) Players() Players {
	var players Players

	if id, ok := that.roles[RoleX]; ok {
		players.X = &id
	}
	if id, ok := that.roles[RoleO]; ok {
		players.O = &id
	}

	return players
}
