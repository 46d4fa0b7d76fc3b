package domain

// Account is owned by the identity subsystem and read-only here.
type Account struct {
	ID            string `json:"id"`
	CredentialsID string `json:"-"`
	DisplayName   string `json:"name"`
	AvatarURL     string `json:"imageUrl,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Identity joins the authenticated credentials with the domain account.
// It is built once when a connection or request authenticates.
type Identity struct {
	CredentialsID string
	AccountID     string
	DisplayName   string
}

func NewIdentity(credentialsID string, account Account) Identity {
	return Identity{
		CredentialsID: credentialsID,
		AccountID:     account.ID,
		DisplayName:   account.DisplayName,
	}
}
