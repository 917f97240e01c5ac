// Package trigger holds the domain model for resource-based invoke
// permissions: the statements that let the gateway or the notification
// service call a deployed function.
package trigger

import "fmt"

// InvokeAction is the only action a trigger statement ever grants.
const InvokeAction = "lambda:InvokeFunction"

// Caller principals.
const (
	GatewayPrincipal = "apigateway.amazonaws.com"
	TopicPrincipal   = "sns.amazonaws.com"
)

// Statement is the reduced projection of one permission statement. The ID
// is assigned on creation and is excluded from shape comparison: the
// platform cannot patch statements, so reconciliation only ever adds a
// statement under a fresh ID or removes one by ID.
type Statement struct {
	ID        string
	Principal string
	Action    string
	SourceARN string
}

// Matches reports whether two statements have the same logical shape,
// ignoring the server-assigned ID.
func (s Statement) Matches(other Statement) bool {
	return s.Principal == other.Principal &&
		s.Action == other.Action &&
		s.SourceARN == other.SourceARN
}

// GatewayInvoke is the desired statement letting an API invoke a function
// on any route and stage.
func GatewayInvoke(region, account, apiID string) Statement {
	return Statement{
		Principal: GatewayPrincipal,
		Action:    InvokeAction,
		SourceARN: fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/*", region, account, apiID),
	}
}

// TopicInvoke is the desired statement letting a notification topic invoke
// its listener function.
func TopicInvoke(topicARN string) Statement {
	return Statement{
		Principal: TopicPrincipal,
		Action:    InvokeAction,
		SourceARN: topicARN,
	}
}
