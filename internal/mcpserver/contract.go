package mcpserver

// NavigationContract describes the views exposed by nbshell and how the
// session flag gates them.
const NavigationContract = `# nbshell Navigation Contract

## Views

| View              | Path                                        |
|-------------------|---------------------------------------------|
| login             | /login                                      |
| app.default       | /default                                    |
| app.notebook      | /notebook/{noteId}                          |
| app.paragraph     | /notebook/{noteId}/paragraph/{paragraphId}  |
| app.interpreter   | /interpreter                                |
| app.configuration | /configuration                              |
| app.search        | /search/{searchTerm}                        |

Any other path resolves to app.default.

## Gating

1. Without a session every view except login redirects to login.
2. With a session, login redirects to app.default.
3. Gating reads the cached session flag only. It never contacts the notebook server.
4. app.default redirects to the default landing notebook once one is known,
   and answers "Please wait.." until then.

## Sidebar

- Notebooks are grouped by category (the first path segment of the notebook name).
- A notebook id appears at most once per category; the first occurrence wins.
- Categories keep the order in which they were first seen.
- The default landing notebook is the first leaf of the first category in the
  first non-empty tree. It is set once per process and never changes.
`
