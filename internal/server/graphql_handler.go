package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"socialql/internal/models"
	"socialql/internal/observability"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/gofiber/fiber/v2"
)

// graphQLRequest is the standard GraphQL-over-HTTP request body.
type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func requestError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"errors": []fiber.Map{{
			"message":    message,
			"extensions": fiber.Map{"code": "BAD_REQUEST"},
		}},
	})
}

// parseGraphQLRequest reads the request from a JSON body (POST) or the
// query string (GET).
func parseGraphQLRequest(c *fiber.Ctx) (*graphQLRequest, error) {
	req := &graphQLRequest{}
	if c.Method() == fiber.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if vars := c.Query("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return nil, errors.New("variables must be a JSON object")
			}
		}
		if err := rejectMutations(req.Query); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(c.Body(), req); err != nil {
		return nil, errors.New("request body must be a JSON GraphQL request")
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query must not be empty")
	}
	return req, nil
}

// rejectMutations fails when the document holds any mutation operation, so
// GET requests can never change state whatever operationName selects.
func rejectMutations(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: query})
	if gqlErr != nil {
		return fmt.Errorf("query could not be parsed: %s", gqlErr.Message)
	}
	for _, op := range doc.Operations {
		if op.Operation == ast.Mutation {
			return errors.New("mutations must use POST")
		}
	}
	return nil
}

// GraphQL executes one GraphQL request. Resolver failures are reported in the
// response errors array with status 200.
func (s *Server) GraphQL(c *fiber.Ctx) error {
	req, err := parseGraphQLRequest(c)
	if err != nil {
		return requestError(c, fiber.StatusBadRequest, err.Error())
	}

	resp := s.schema.Exec(c.UserContext(), req.Query, req.OperationName, req.Variables)
	if len(resp.Errors) > 0 && resp.Data == nil {
		observability.Logger.WarnContext(c.UserContext(), "graphql request rejected",
			"operation", req.OperationName,
			"error", resp.Errors[0].Message,
		)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// errorHandler renders errors that escape handlers in GraphQL error shape.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"errors": []fiber.Map{{"message": fe.Message}},
		})
	}

	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
	appErr := models.NewInternalError(err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"errors": []fiber.Map{{
			"message":    appErr.Message,
			"extensions": fiber.Map{"code": appErr.Code},
		}},
	})
}
