/*
Package domain contains the core model of the Conduit symbolic executor.

It defines the values the engine manipulates and the graph it walks. The
package is pure: no I/O, no persistence, no logging.

# Key Entities

  - Type: the static type of a stack value, shared by pointer.
  - Item: an immutable symbolic value, either a literal, a placeholder, or an
    expression tree built by an instruction.
  - Stack: one execution state, with a cursor that protects items hidden by DIP.
  - Instruction: a plain instruction or a bracketed group, with literal or code arguments.
  - Graph: an arena of tubes (straight-line code) and joints (branches), linked by index.
  - Report: the persisted summary of an analysis.
*/
package domain
