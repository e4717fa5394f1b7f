// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"crm-api/internal/handler"
	"crm-api/internal/middleware"
	"crm-api/internal/repository"
	"crm-api/internal/token"
)

// Register wires every route of the API onto the Echo instance.
// Sign-in and refresh are the only operations reachable without a
// bearer token; everything else runs through the authentication gate.
func Register(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, r *handler.RoleHandler, svc *token.Service, tokens *repository.TokenRepo) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/auth")
	auth.POST("/signin", a.SignIn)
	auth.POST("/refreshToken", a.Refresh)

	gate := middleware.Authenticate(svc, tokens)

	// Logout needs the bearer token to blacklist it, so it sits behind
	// the handler's own header checks rather than the gate: a client
	// holding an expired access token must still be able to log out.
	auth.POST("/logout", a.Logout)
	auth.PUT("/changePassword/:id", a.ChangePassword, gate)

	roles := e.Group("/roles", gate)
	roles.GET("/getRoles", r.GetRoles)
	roles.GET("/getRole/:id", r.GetRole)
	roles.POST("/addRoles", r.AddRole)
	roles.PUT("/updateRole/:id", r.UpdateRole)
	roles.DELETE("/deleteRole/:id", r.DeleteRole)

	users := e.Group("/users", gate)
	users.GET("/getAllUser", u.GetAllUsers)
	users.GET("/getUser/:id", u.GetUser)
	users.POST("/addUser", u.AddUser)
	users.PUT("/updateUser/:id", u.UpdateUser)
	users.DELETE("/deleteUser/:id", u.DeleteUser)
}
