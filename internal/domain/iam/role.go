// Package iam holds the domain model for the single shared execution role
// every service function runs under.
package iam

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRoleName = errors.New("role name cannot be empty")

// Role is the reduced projection of the execution role.
type Role struct {
	Name string
	ARN  string
}

// Statement is one entry of the role's inline policy document. Resource
// patterns may carry $REGION and $ACCOUNT placeholders which are
// substituted when the policy is rendered.
type Statement struct {
	Effect   string   `json:"Effect" yaml:"effect"`
	Action   []string `json:"Action" yaml:"action"`
	Resource string   `json:"Resource" yaml:"resource"`
}

// PolicyDocument is the inline policy attached to the role. It is always
// written whole; remote content is never merged in.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// RoleName derives the shared execution role name for a service.
func RoleName(prefix, service string) string {
	return prefix + "-" + service
}

// PolicyName is the fixed name of the role's inline policy.
const PolicyName = "node-deploy"

// AssumeRolePolicy is the trust policy allowing the compute platform to
// assume the execution role.
const AssumeRolePolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"lambda.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

// RenderPolicy assembles the full inline policy: the fixed log-writing
// baseline plus the caller-supplied extra statements, with $REGION and
// $ACCOUNT substituted.
func RenderPolicy(region, account string, extra []Statement) PolicyDocument {
	statements := []Statement{
		{
			Effect:   "Allow",
			Action:   []string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
			Resource: fmt.Sprintf("arn:aws:logs:%s:%s:*", region, account),
		},
	}
	for _, s := range extra {
		s.Resource = strings.NewReplacer("$REGION", region, "$ACCOUNT", account).Replace(s.Resource)
		statements = append(statements, s)
	}
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// JSON renders the policy document for the remote API.
func (p PolicyDocument) JSON() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(raw), nil
}

// ParseFunctionARN extracts region and account from a function identifier
// of the form arn:aws:lambda:REGION:ACCOUNT:function:NAME.
func ParseFunctionARN(arn string) (region, account string, err error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 || parts[0] != "arn" || parts[2] != "lambda" {
		return "", "", fmt.Errorf("cannot parse region and account from %q", arn)
	}
	return parts[3], parts[4], nil
}
