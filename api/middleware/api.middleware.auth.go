package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/hivetool/apiaryhub/internal/errors"
)

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
	// IngestRole is the realm role the datapoint pipeline authenticates
	// with. Ingest endpoints require it instead of apiary membership.
	IngestRole string
}

type KeycloakMiddleware struct {
	client *gocloak.GoCloak
	config KeycloakConfig
}

type UserContext struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type contextKey string

const userContextKey contextKey = "user"

func NewKeycloakMiddleware(config KeycloakConfig) *KeycloakMiddleware {
	return &KeycloakMiddleware{
		client: gocloak.NewClient(config.URL),
		config: config,
	}
}

// GetUserContext returns the authenticated user stored by Authenticate,
// or nil when the request never passed through it.
func GetUserContext(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userContextKey).(*UserContext)
	return user
}

// Authenticate validates the token and adds user info to context
func (k *KeycloakMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		// Verify token
		result, err := k.client.RetrospectToken(r.Context(), token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
		if err != nil || result.Active == nil || !*result.Active {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		claims, err := k.client.GetUserInfo(r.Context(), token, k.config.Realm)
		if err != nil {
			handleError(w, errors.NewAuthError("failed to get user info", err))
			return
		}

		userContext, err := k.createUserContext(r.Context(), token, claims)
		if err != nil {
			handleError(w, errors.NewAuthError("failed to create user context", err))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles middleware ensures user has required realm roles
func (k *KeycloakMiddleware) RequireRoles(roles []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserContext(r.Context())
			if user == nil {
				handleError(w, errors.NewAuthError("no user context found", nil))
				return
			}

			if !hasRequiredRoles(user.Roles, roles) {
				handleError(w, errors.NewAuthorizationError("insufficient permissions", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireIngestRole gates the datapoint ingest endpoint on the
// configured pipeline realm role.
func (k *KeycloakMiddleware) RequireIngestRole(next http.Handler) http.Handler {
	return k.RequireRoles([]string{k.config.IngestRole})(next)
}

// Helper functions

func (k *KeycloakMiddleware) createUserContext(ctx context.Context, token string, userInfo *gocloak.UserInfo) (*UserContext, error) {
	userContext := &UserContext{
		Roles: []string{},
	}
	if userInfo.Sub != nil {
		userContext.ID = *userInfo.Sub
	}
	if userInfo.PreferredUsername != nil {
		userContext.Username = *userInfo.PreferredUsername
	}
	if userInfo.Email != nil {
		userContext.Email = *userInfo.Email
	}

	roles, err := k.client.GetRealmRoles(ctx, token, k.config.Realm, gocloak.GetRoleParams{})
	if err != nil {
		return nil, err
	}
	userContext.Roles = extractRoles(roles)
	return userContext, nil
}

func extractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	return ""
}

func extractRoles(roles []*gocloak.Role) []string {
	var roleStrings []string
	for _, role := range roles {
		if role.Name != nil {
			roleStrings = append(roleStrings, *role.Name)
		}
	}
	return roleStrings
}

func hasRequiredRoles(userRoles, requiredRoles []string) bool {
	if len(requiredRoles) == 0 {
		return true
	}

	roleMap := make(map[string]bool)
	for _, role := range userRoles {
		roleMap[role] = true
	}

	for _, required := range requiredRoles {
		if required == "*" {
			return true
		}
		if !roleMap[required] {
			return false
		}
	}
	return true
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
