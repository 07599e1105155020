package domain

// Client-side routes the navigator understands
const (
	RouteHome        = "/"
	RouteEmailVerify = "/email-verify"
)
