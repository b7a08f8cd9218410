package apitest

import "context"

func contextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey{}).(string)

	return username
}
