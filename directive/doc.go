// Package directive implements the line-oriented directive language agents
// speak: a closed AST with one type per verb, a lexer/parser that turns a
// reasoning-service response into exactly one Directive, grammar profiles
// restricting the verbs each agent kind may use, and a renderer producing
// canonical text such that Parse(Render(d)) reconstructs d.
//
// Grammar (verbs, kind words and field names are case-insensitive):
//
//	READ file "a.ts", folder "lib"
//	CREATE folder "src"
//	DELETE file "old.ts"
//	DELEGATE file "calc.ts" PROMPT="implement add", folder "b" PROMPT="..."
//	DELEGATE PROMPT="..."            (root coordinator, implicit sole child)
//	SPAWN tester PROMPT="debug failing tests"
//	CHANGE [file "calc.ts"] CONTENT="<full replacement text>"
//	UPDATE_README CONTENT="<full replacement text>"
//	RUN "npm test"
//	WAIT
//	FINISH PROMPT="done"
//
// Quoted strings may span lines and support the escapes \" \\ \n \r \t.
package directive
