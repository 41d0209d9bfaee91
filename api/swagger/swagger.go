package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fee Ledger API",
        "description": "Student fee payment ledger and reporting service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "FeePayments", "description": "Fee payment ledger records"},
        {"name": "FeeSummary", "description": "Financial summaries and exports"},
        {"name": "FeePlans", "description": "Fee plan management"}
    ],
    "paths": {
        "/fee-payments": {
            "post": {
                "tags": ["FeePayments"],
                "summary": "Create a fee payment record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFeePaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or fee plan not found"},
                    "409": {"description": "Payment already exists for this student and fee plan"}
                }
            }
        },
        "/fee-payments/transaction": {
            "put": {
                "tags": ["FeePayments"],
                "summary": "Record a payment transaction",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddTransactionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate transaction ID or concurrent modification"}
                }
            }
        },
        "/fee-payments/apply-discount": {
            "put": {
                "tags": ["FeePayments"],
                "summary": "Apply a manual scholarship or discount",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-payments/apply-late-fee": {
            "put": {
                "tags": ["FeePayments"],
                "summary": "Apply a manual late fee",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyLateFeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-payments/student/{studentId}": {
            "get": {
                "tags": ["FeePayments"],
                "summary": "List a student's fee payment records",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-payments/{id}": {
            "get": {
                "tags": ["FeePayments"],
                "summary": "Get a fee payment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "tags": ["FeePayments"],
                "summary": "Update a fee payment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFeePaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["FeePayments"],
                "summary": "Delete a fee payment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/fee-summary/dashboard": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "Unfiltered financial summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-summary/analytics": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "Filtered financial summary",
                "parameters": [
                    {"name": "courseName", "in": "query", "type": "string"},
                    {"name": "batchStartYear", "in": "query", "type": "integer"},
                    {"name": "batchEndYear", "in": "query", "type": "integer"},
                    {"name": "section", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course or batch not found"}
                }
            }
        },
        "/fee-summary/export": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "Export the filtered summary as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv (default) or pdf"}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        },
        "/fee-summary/courses": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "List courses for report filters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-summary/batches": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "List batches for report filters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-summary/students/search": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "Search students with their fee status",
                "parameters": [
                    {"name": "name", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-summary/{feePaymentId}/history": {
            "get": {
                "tags": ["FeeSummary"],
                "summary": "Payment history of a fee payment record",
                "parameters": [
                    {"name": "feePaymentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/fee-plans": {
            "get": {
                "tags": ["FeePlans"],
                "summary": "List fee plans",
                "parameters": [
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["FeePlans"],
                "summary": "Create a fee plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-plans/{id}": {
            "get": {
                "tags": ["FeePlans"],
                "summary": "Get a fee plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["FeePlans"],
                "summary": "Update a fee plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["FeePlans"],
                "summary": "Delete a fee plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "Transaction": {
            "type": "object",
            "properties": {
                "transactionId": {"type": "string"},
                "amount": {"type": "number"},
                "paymentMethod": {"type": "string"},
                "paymentDate": {"type": "string"},
                "status": {"type": "string"},
                "receiptUrl": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "HistoryEntry": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "date": {"type": "string"},
                "type": {"type": "string"},
                "description": {"type": "string"},
                "recordedBy": {"type": "string"}
            }
        },
        "FeePayment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student": {"type": "string"},
                "feePlan": {"type": "string"},
                "course": {"type": "string"},
                "batch": {"type": "string"},
                "section": {"type": "string"},
                "totalAmount": {"type": "number"},
                "amountPaid": {"type": "number"},
                "scholarshipApplied": {"type": "number"},
                "lateFeeApplied": {"type": "number"},
                "discountApplied": {"type": "number"},
                "status": {"type": "string"},
                "dueDate": {"type": "string"},
                "transactions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Transaction"}
                },
                "paymentHistory": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/HistoryEntry"}
                }
            }
        },
        "CreateFeePaymentRequest": {
            "type": "object",
            "properties": {
                "student": {"type": "string"},
                "feePlan": {"type": "string"},
                "course": {"type": "string"},
                "batch": {"type": "string"},
                "section": {"type": "string"},
                "totalAmount": {"type": "number"},
                "dueDate": {"type": "string"},
                "transaction": {"$ref": "#/definitions/Transaction"},
                "customScholarship": {"type": "object"}
            },
            "required": ["student", "feePlan"]
        },
        "AddTransactionRequest": {
            "type": "object",
            "properties": {
                "feePaymentId": {"type": "string"},
                "transaction": {"$ref": "#/definitions/Transaction"}
            },
            "required": ["feePaymentId", "transaction"]
        },
        "ApplyAdjustmentRequest": {
            "type": "object",
            "properties": {
                "feePaymentId": {"type": "string"},
                "type": {"type": "string", "description": "scholarship or discount"},
                "amount": {"type": "number"},
                "customScholarshipType": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["feePaymentId", "type", "amount"]
        },
        "ApplyLateFeeRequest": {
            "type": "object",
            "properties": {
                "feePaymentId": {"type": "string"},
                "fineAmount": {"type": "number"},
                "description": {"type": "string"}
            },
            "required": ["feePaymentId", "fineAmount"]
        },
        "UpdateFeePaymentRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dueDate": {"type": "string"},
                "discountApplied": {"type": "number"}
            }
        },
        "FeePlanRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "course": {"type": "string"},
                "batch": {"type": "string"},
                "amount": {"type": "number"},
                "components": {"type": "array", "items": {"type": "object"}},
                "dueDate": {"type": "string"},
                "lateFees": {"type": "array", "items": {"type": "object"}},
                "scholarships": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["name", "course", "batch", "dueDate"]
        },
        "SummaryResponse": {
            "type": "object",
            "properties": {
                "totalFees": {"type": "number"},
                "totalCollected": {"type": "number"},
                "totalOutstanding": {"type": "number"},
                "totalFines": {"type": "number"},
                "numberOfFines": {"type": "integer"},
                "totalScholarships": {"type": "number"},
                "totalDiscounts": {"type": "number"},
                "paymentMethodBreakdown": {"type": "array", "items": {"type": "object"}},
                "statusDistribution": {"type": "array", "items": {"type": "object"}},
                "studentsByStatus": {"type": "array", "items": {"type": "object"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
