package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// RequirePermission returns middleware that checks if the authenticated user
// has a specific global permission (from their platform role).
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, exists := c.Get("permissions")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "no permissions in context",
			})
			return
		}
		permList, ok := perms.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "invalid permissions type",
			})
			return
		}

		// platform:admin is the explicit super-admin permission.
		if slices.Contains(permList, "platform:admin") {
			c.Next()
			return
		}

		if slices.Contains(permList, permission) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code": "FORBIDDEN", "message": "insufficient permissions",
		})
	}
}

// ResourceRole represents a user's role on a specific workspace.
type ResourceRole string

const (
	ResourceRoleOwner  ResourceRole = "owner"
	ResourceRoleAdmin  ResourceRole = "admin"
	ResourceRoleMember ResourceRole = "member"
	ResourceRoleViewer ResourceRole = "viewer"
)

// WorkspaceRoleChecker looks up a user's role binding on a workspace.
// Workspaces have no parent resource to inherit a role from, so a lookup
// is a single flat check rather than a hierarchy walk.
type WorkspaceRoleChecker interface {
	CheckWorkspaceRole(ctx context.Context, userID, workspaceID string) (ResourceRole, bool, error)
}

// RoleCanPerform checks if a workspace role can perform the given action.
func RoleCanPerform(role ResourceRole, action string) bool {
	switch role {
	case ResourceRoleOwner:
		return true
	case ResourceRoleAdmin:
		return action != "transfer_ownership"
	case ResourceRoleMember:
		return action == "view" || action == "create"
	case ResourceRoleViewer:
		return action == "view"
	default:
		return false
	}
}

// RequireWorkspaceAccess returns middleware that checks workspace-level
// permissions. It first checks global permissions, then falls back to the
// user's role binding on the workspace named by paramName.
func RequireWorkspaceAccess(checker WorkspaceRoleChecker, action string, paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, _ := c.Get("permissions")
		if permList, ok := perms.([]string); ok && slices.Contains(permList, "platform:admin") {
			c.Next()
			return
		}

		userID := GetUserID(c.Request.Context())
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "not authenticated",
			})
			return
		}

		workspaceID := c.Param(paramName)
		if workspaceID == "" {
			c.Next()
			return
		}

		role, found, err := checker.CheckWorkspaceRole(c.Request.Context(), userID, workspaceID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code": "INTERNAL_ERROR", "message": "permission check failed",
			})
			return
		}

		if !found || !RoleCanPerform(role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "insufficient workspace permissions",
			})
			return
		}

		c.Next()
	}
}
