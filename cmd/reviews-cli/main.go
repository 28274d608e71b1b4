package main

import (
	"context"

	"reviews-backend/cmd/reviews-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
