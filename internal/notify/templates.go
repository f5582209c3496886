package notify

import "fmt"

func applicationSubmitted(applicantName, jobTitle, company string) (string, string) {
	subject := fmt.Sprintf("Application Submitted - %s at %s", jobTitle, company)
	body := fmt.Sprintf(`Dear %s,

Your application for the position of %s at %s has been successfully submitted.
We will review your application and get back to you soon.

Best regards,
Job Portal Team
`, applicantName, jobTitle, company)
	return subject, body
}

func newApplication(posterName, applicantName, jobTitle string) (string, string) {
	subject := fmt.Sprintf("New Application Received - %s", jobTitle)
	body := fmt.Sprintf(`Dear %s,

A new application has been submitted for %s by %s.
You can review the application in your dashboard.

Best regards,
Job Portal Team
`, posterName, jobTitle, applicantName)
	return subject, body
}

func statusChanged(applicantName, jobTitle, company, status string) (string, string) {
	subject := fmt.Sprintf("Application Status Update - %s", jobTitle)
	body := fmt.Sprintf(`Dear %s,

Your application status for %s at %s has been updated to: %s.
You can check your application details in your dashboard.

Best regards,
Job Portal Team
`, applicantName, jobTitle, company, status)
	return subject, body
}

func applicationWithdrawn(posterName, applicantName, jobTitle string) (string, string) {
	subject := fmt.Sprintf("Application Withdrawn - %s", jobTitle)
	body := fmt.Sprintf(`Dear %s,

%s has withdrawn their application for %s.

Best regards,
Job Portal Team
`, posterName, applicantName, jobTitle)
	return subject, body
}
