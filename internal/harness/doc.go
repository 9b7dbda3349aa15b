// Package harness runs scripted worktrack sessions as executable tests.
//
// A scenario logs users in, submits plans and reports, manages users and
// moves the clock, all through the real auth, workflow and store packages
// over in-memory storage. Each step is recorded as an invocation and a
// completion, and the final trace can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files. Unknown fields are rejected.
//
//	name: plan_edit_cap
//	description: "A plan accepts three edits after the first submission"
//	today: "2025-03-03"
//	setup:
//	  - action: Auth.login
//	    args: { email: john.doe@company.com, password: emp123 }
//	flow:
//	  - invoke: Plan.submit
//	    args: { tasks: [Write report] }
//	    expect:
//	      case: Success
//	      result: { edit_count: 0, remaining: 3 }
//	assertions:
//	  - type: final_state
//	    table: planned_tasks
//	    where: { userId: "2" }
//	    expect: { editCount: 0 }
//
// # Actions
//
//   - Auth.login {email, password}; Auth.logout
//   - Plan.submit {tasks, date}
//   - EOD.submit {completed_tasks, challenges, next_day_plan, hours, date}
//   - User.create / User.update {id, email, name, role, department, position, phone}
//   - User.delete {id}
//   - Clock.setDay {date}
//
// A step's case is "Success" or the error code it failed with, such as
// EDIT_CAP_REACHED, NOT_SIGNED_IN or AUTH_FAILED.
//
// # Assertion Types
//
//   - trace_contains: an action was invoked with matching args
//   - trace_order: actions were first invoked in the given order
//   - trace_count: an action was invoked exactly N times
//   - final_state: exactly one record in users, planned_tasks, eod_reports
//     or session matches where, and has the expected fields
package harness
