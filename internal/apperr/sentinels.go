package apperr

// Relationship rejections. Each is distinct so clients can tell them apart by message.
var (
	ErrSelfFollow       = Conflict("you cannot subscribe to yourself")
	ErrSelfUnfollow     = Conflict("you cannot unsubscribe from yourself")
	ErrAlreadyFollowing = Conflict("you are already subscribed to this user")
	ErrNotFollowing     = Conflict("you are not subscribed to this user")

	ErrAlreadyFavorited = Conflict("recipe is already in favorites")
	ErrNotFavorited     = Conflict("recipe is not in favorites")

	ErrAlreadyInCart = Conflict("recipe is already in the shopping cart")
	ErrNotInCart     = Conflict("recipe is not in the shopping cart")
)

var (
	ErrInvalidCredentials = Validation("unable to log in with provided credentials")
	ErrAuthRequired       = Unauthorized("authentication credentials were not provided")
	ErrInvalidToken       = Unauthorized("invalid or expired token")
	ErrAdminOnly          = Permission("only administrators can perform this action")
	ErrNotRecipeAuthor    = Permission("only the author can modify this recipe")
)
