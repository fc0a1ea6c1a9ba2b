// Package core provides the classification engine for debt spreadsheets.
//
// # Error Codes Reference
//
// User-facing failures carry a code that can be quoted to support staff.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid configuration: the rule configuration is malformed
//	         Action: Review the column mapping and rule parameters
//	         Match: *InvalidConfigError, "invalid configuration"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Missing columns: a mapped required column is not in the file
//	         Action: Map every required field to an existing column
//	         Match: *MissingColumnsError, "missing columns"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the size limit
//	FILE002 - Unsupported format: extension is not .xlsx or .xls
//	FILE003 - Unreadable file: spreadsheet could not be decoded
//	FILE004 - No file: no file part in the request
//	FILE005 - Empty file: the uploaded file has no bytes
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - System busy: every processing slot is taken
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from one client
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check the application logs for the technical error
//
// Typed errors are matched first with errors.As; everything else falls back
// to case-insensitive substring patterns, first match wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalidConfig = UserMessage{
		Message: "A configuração de regras é inválida",
		Action:  "Revise o mapeamento de colunas e os parâmetros das regras",
		Code:    "CFG001",
	}
	msgMissingColumns = UserMessage{
		Message: "Colunas obrigatórias não encontradas no arquivo",
		Action:  "Mapeie cada campo obrigatório para uma coluna existente",
		Code:    "COL001",
	}
	msgUnsupportedFormat = UserMessage{
		Message: "Formato de arquivo não suportado",
		Action:  "Envie uma planilha .xlsx ou .xls",
		Code:    "FILE002",
	}
	msgUnreadable = UserMessage{
		Message: "Não foi possível ler a planilha",
		Action:  "Abra o arquivo no Excel e salve novamente como .xlsx",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "O arquivo enviado está vazio",
		Action:  "Envie uma planilha com cabeçalho e linhas de dados",
		Code:    "FILE005",
	}
	msgBusy = UserMessage{
		Message: "O sistema está processando outros arquivos",
		Action:  "Aguarde alguns instantes e tente novamente",
		Code:    "JOB001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that do not reach MapError as a typed value,
// such as messages produced by the HTTP layer. Order matters: more specific
// patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "invalid configuration", msg: msgInvalidConfig},
	{pattern: "missing columns", msg: msgMissingColumns},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "O arquivo excede o tamanho máximo permitido",
			Action:  "Divida a planilha em arquivos menores",
			Code:    "FILE001",
		},
	},
	{pattern: "unsupported file format", msg: msgUnsupportedFormat},
	{pattern: "error reading file", msg: msgUnreadable},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi enviado",
			Action:  "Selecione uma planilha para enviar",
			Code:    "FILE004",
		},
	},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "too many concurrent jobs", msg: msgBusy},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A requisição foi cancelada",
			Action:  "Tente novamente",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição excedeu o tempo limite",
			Action:  "Tente um arquivo menor ou tente novamente mais tarde",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Missing-column messages name the columns so the user can fix the mapping.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		missing     *MissingColumnsError
		invalid     *InvalidConfigError
		unsupported *UnsupportedFormatError
		unreadable  *FileReadError
	)
	switch {
	case errors.As(err, &missing):
		msg := msgMissingColumns
		msg.Message = fmt.Sprintf("%s: %s", msg.Message, strings.Join(missing.Missing, ", "))
		return msg
	case errors.As(err, &invalid):
		msg := msgInvalidConfig
		if len(invalid.Problems) > 0 {
			msg.Message = fmt.Sprintf("%s: %s", msg.Message, strings.Join(invalid.Problems, "; "))
		}
		return msg
	case errors.As(err, &unsupported):
		return msgUnsupportedFormat
	case errors.As(err, &unreadable):
		return msgUnreadable
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrTooManyJobs):
		return msgBusy
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
