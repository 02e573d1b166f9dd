package domain

// CanMutate reports whether actor may update or delete event.
// The creator may always mutate their own event; admins may mutate any event.
func CanMutate(actor Actor, event *Event) bool {
	if event == nil || actor.ID == "" {
		return false
	}
	return actor.ID == event.CreatedBy || actor.Role == RoleAdmin
}
