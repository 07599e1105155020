package ui

import (
	"authfort-cli/internal/domain"
)

// HomeScreen prints the account summary for snapshot
func HomeScreen(c *Console, snapshot func() domain.Session) Screen {
	return func() {
		PrintSession(c, snapshot())
	}
}

// PrintSession prints a short description of the session state
func PrintSession(c *Console, st domain.Session) {
	if !st.IsLoggedIn || st.User == nil {
		if st.HasToken() {
			c.Printf("Not logged in (stored token was not accepted)\n")
			return
		}
		c.Printf("Not logged in\n")
		return
	}

	status := "unverified"
	if st.User.IsAccountVerified {
		status = "verified"
	}
	c.Printf("Logged in as %s <%s>\n", st.User.Name, st.User.Email)
	c.Printf("  user id: %s\n", st.User.UserID)
	c.Printf("  email:   %s\n", status)
}
