// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wavetermdev/htmltoken"
)

// tokenizes raw markup (the string form of render output) into nodes

var ErrInvalidMarkup = errors.New("invalid markup")

func markupErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMarkup, fmt.Sprintf(format, args...))
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

func IsVoidTag(tag string) bool {
	return voidTags[strings.ToLower(tag)]
}

func curElemTag(stack []*Node) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1].Tag
}

func tokenToElem(token htmltoken.Token) *Node {
	elem := &Node{Type: ElementNode, Tag: token.Data}
	for _, attr := range token.Attr {
		if attr.Key == "" {
			continue
		}
		if attr.Key == KeyAttr {
			elem.Key = attr.Val
			continue
		}
		elem.SetAttr(attr.Key, attr.Val)
	}
	return elem
}

func isWsChar(char rune) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

func isWsByte(char byte) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

func isFirstCharLt(s string) bool {
	for _, char := range s {
		if isWsChar(char) {
			continue
		}
		return char == '<'
	}
	return false
}

func isLastCharGt(s string) bool {
	for i := len(s) - 1; i >= 0; i-- {
		char := s[i]
		if isWsByte(char) {
			continue
		}
		return char == '>'
	}
	return false
}

func isAllWhitespace(s string) bool {
	for _, char := range s {
		if !isWsChar(char) {
			return false
		}
	}
	return true
}

func trimWhitespaceConditionally(s string) string {
	if isAllWhitespace(s) {
		return ""
	}
	// Trim leading whitespace if the first non-whitespace character is '<'
	if isFirstCharLt(s) {
		s = strings.TrimLeftFunc(s, isWsChar)
	}
	// Trim trailing whitespace if the last non-whitespace character is '>'
	if isLastCharGt(s) {
		s = strings.TrimRightFunc(s, isWsChar)
	}
	return s
}

// drops the indentation between tags so formatted templates do not produce
// whitespace-only text nodes
func processWhitespace(htmlStr string) string {
	lines := strings.Split(htmlStr, "\n")
	var newLines []string
	for _, line := range lines {
		trimmedLine := trimWhitespaceConditionally(line + "\n")
		if trimmedLine == "" {
			continue
		}
		newLines = append(newLines, trimmedLine)
	}
	return strings.Join(newLines, "")
}

func processTextStr(s string) string {
	if s == "" {
		return ""
	}
	if isAllWhitespace(s) {
		return " "
	}
	return strings.TrimSpace(s)
}

// ParseMarkup returns the top-level nodes of htmlStr.
func ParseMarkup(htmlStr string) ([]*Node, error) {
	htmlStr = processWhitespace(htmlStr)
	iter := htmltoken.NewTokenizer(strings.NewReader(htmlStr))
	fragment := &Node{Type: ElementNode}
	stack := []*Node{fragment}
	cur := func() *Node { return stack[len(stack)-1] }
	for {
		tokenType := iter.Next()
		token := iter.Token()
		switch tokenType {
		case htmltoken.StartTagToken:
			elem := tokenToElem(token)
			cur().AppendChild(elem)
			if !IsVoidTag(elem.Tag) {
				stack = append(stack, elem)
			}
		case htmltoken.EndTagToken:
			if IsVoidTag(token.Data) {
				continue
			}
			if len(stack) <= 1 {
				return nil, markupErrorf("end tag %q without start tag", token.Data)
			}
			if curElemTag(stack) != token.Data {
				return nil, markupErrorf("end tag %q does not match start tag %q", token.Data, curElemTag(stack))
			}
			stack = stack[:len(stack)-1]
		case htmltoken.SelfClosingTagToken:
			cur().AppendChild(tokenToElem(token))
		case htmltoken.TextToken:
			textStr := processTextStr(token.Data)
			if textStr == "" {
				continue
			}
			cur().AppendChild(TextElem(textStr))
		case htmltoken.CommentToken:
			cur().AppendChild(CommentElem(token.Data))
		case htmltoken.DoctypeToken:
			return nil, markupErrorf("doctype not supported")
		case htmltoken.ErrorToken:
			if iter.Err() != io.EOF {
				return nil, fmt.Errorf("%w: %w", ErrInvalidMarkup, iter.Err())
			}
			if len(stack) > 1 {
				return nil, markupErrorf("unclosed tag %q", curElemTag(stack))
			}
			rtn := fragment.Children
			fragment.Children = nil
			for _, node := range rtn {
				node.parent = nil
			}
			return rtn, nil
		}
	}
}

// MustParse parses markup that must hold exactly one root node (tests, static templates).
func MustParse(htmlStr string) *Node {
	nodes, err := ParseMarkup(htmlStr)
	if err != nil {
		panic(err)
	}
	if len(nodes) != 1 {
		panic(fmt.Sprintf("MustParse: expected 1 root node, got %d", len(nodes)))
	}
	return nodes[0]
}
